package dispatch

import (
	"fmt"

	"github.com/wippyai/xpu-interop/errors"
)

// Result is the status code returned by every backend entry point.
type Result int32

const (
	ResultSuccess Result = iota
	ResultErrorInvalidOperation
	ResultErrorInvalidValue
	ResultErrorInvalidNativeHandle
	ResultErrorInvalidPlatform
	ResultErrorInvalidDevice
	ResultErrorInvalidContext
	ResultErrorInvalidQueue
	ResultErrorInvalidEvent
	ResultErrorInvalidProgram
	ResultErrorInvalidKernel
	ResultErrorInvalidKernelName
	ResultErrorInvalidMemObject
	ResultErrorProgramBuildFailure
	ResultErrorProgramLinkFailure
	ResultErrorUnsupportedFeature
	ResultErrorOutOfResources
	ResultErrorUninitialized
	ResultErrorUnknown Result = 0x7ffffffe
)

var resultNames = map[Result]string{
	ResultSuccess:                  "SUCCESS",
	ResultErrorInvalidOperation:    "ERROR_INVALID_OPERATION",
	ResultErrorInvalidValue:        "ERROR_INVALID_VALUE",
	ResultErrorInvalidNativeHandle: "ERROR_INVALID_NATIVE_HANDLE",
	ResultErrorInvalidPlatform:     "ERROR_INVALID_PLATFORM",
	ResultErrorInvalidDevice:       "ERROR_INVALID_DEVICE",
	ResultErrorInvalidContext:      "ERROR_INVALID_CONTEXT",
	ResultErrorInvalidQueue:        "ERROR_INVALID_QUEUE",
	ResultErrorInvalidEvent:        "ERROR_INVALID_EVENT",
	ResultErrorInvalidProgram:      "ERROR_INVALID_PROGRAM",
	ResultErrorInvalidKernel:       "ERROR_INVALID_KERNEL",
	ResultErrorInvalidKernelName:   "ERROR_INVALID_KERNEL_NAME",
	ResultErrorInvalidMemObject:    "ERROR_INVALID_MEM_OBJECT",
	ResultErrorProgramBuildFailure: "ERROR_PROGRAM_BUILD_FAILURE",
	ResultErrorProgramLinkFailure:  "ERROR_PROGRAM_LINK_FAILURE",
	ResultErrorUnsupportedFeature:  "ERROR_UNSUPPORTED_FEATURE",
	ResultErrorOutOfResources:      "ERROR_OUT_OF_RESOURCES",
	ResultErrorUninitialized:       "ERROR_UNINITIALIZED",
	ResultErrorUnknown:             "ERROR_UNKNOWN",
}

func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return fmt.Sprintf("RESULT(%d)", int32(r))
}

// OK reports whether r is ResultSuccess.
func (r Result) OK() bool { return r == ResultSuccess }

// Check turns a failed result into a BackendCallFailed error. It returns nil on success.
func Check(res Result, phase errors.Phase, op string) error {
	if res == ResultSuccess {
		return nil
	}
	return errors.New(phase, errors.KindBackendCallFailed).
		Op(op).
		Code(int32(res)).
		Detail("%s", res.String()).
		Build()
}
