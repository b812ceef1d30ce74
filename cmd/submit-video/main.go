// Package main runs the video submission pipeline on AWS Lambda.
package main

import (
	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/lambdafn"
)

func main() {
	lambdafn.Run(config.FunctionSubmit)
}
