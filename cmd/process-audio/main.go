// Package main runs the audio pass-through pipeline on AWS Lambda.
package main

import (
	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/lambdafn"
)

func main() {
	lambdafn.Run(config.FunctionAudio)
}
