// Package workflow starts downstream state machine executions on AWS Step
// Functions. Execution names must be unique within the state machine; a
// name collision surfaces as a conflict so the caller can distinguish it
// from an engine outage.
package workflow

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	sfnTypes "github.com/aws/aws-sdk-go-v2/service/sfn/types"

	"spapi-bridge/internal/common/errors"
)

// Engine is the workflow-start boundary consumed by the dispatcher
type Engine interface {
	StartExecution(ctx context.Context, name string, input interface{}) (string, error)
}

// SFNAPI is the subset of the Step Functions client this package uses
type SFNAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

// Compile-time interface checks
var (
	_ SFNAPI = (*sfn.Client)(nil)
	_ Engine = (*StepFunctions)(nil)
)

// StepFunctions implements Engine against one state machine
type StepFunctions struct {
	client          SFNAPI
	stateMachineARN string
}

// New creates a StepFunctions engine for the given state machine
func New(client SFNAPI, stateMachineARN string) *StepFunctions {
	return &StepFunctions{client: client, stateMachineARN: stateMachineARN}
}

// StartExecution serializes input and starts one execution under the given
// name. It returns the execution ARN.
func (e *StepFunctions) StartExecution(ctx context.Context, name string, input interface{}) (string, error) {
	if name == "" {
		return "", errors.InvalidArgumentError("execution name is required")
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return "", errors.InvalidArgumentError("workflow input is not serializable").WithContext("execution_name", name)
	}

	out, err := e.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(e.stateMachineARN),
		Name:            aws.String(name),
		Input:           aws.String(string(payload)),
	})
	if err != nil {
		var exists *sfnTypes.ExecutionAlreadyExists
		if stderrors.As(err, &exists) {
			return "", errors.ConflictError("execution name already exists", err).
				WithContext("execution_name", name)
		}
		return "", errors.UpstreamError("starting workflow execution failed", err).
			WithContext("execution_name", name)
	}

	return aws.ToString(out.ExecutionArn), nil
}
