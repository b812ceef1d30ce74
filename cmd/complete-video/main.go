// Package main runs the job completion pipeline on AWS Lambda.
package main

import (
	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/lambdafn"
)

func main() {
	lambdafn.Run(config.FunctionComplete)
}
