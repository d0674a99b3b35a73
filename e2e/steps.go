package e2e

import (
	"github.com/cucumber/godog"

	"arrears/e2e/steps/common"
	"arrears/e2e/steps/delinquency"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register delinquency-specific steps
	delinquency.RegisterSteps(ctx, tc)
}
