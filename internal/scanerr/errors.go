// Package scanerr implements Scanarium's tagged error model: every failure
// that can cross a component boundary is a *Error carrying a stable code, a
// human template, public/private parameter maps and a per-occurrence UUID.
package scanerr

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Code is a stable, screaming-snake identifier (e.g. "SE_SCAN_NO_QR_CODE").
type Code string

const (
	UnknownQr              Code = "SE_UNKNOWN_QR_CODE"
	MalformedQr            Code = "SE_SCAN_MISFORMED_QR_CODE"
	NoQrCode               Code = "SE_SCAN_NO_QR_CODE"
	TooManyQrCodes         Code = "SE_SCAN_TOO_MANY_QR_CODES"
	UnknownScene           Code = "SE_UNKNOWN_SCENE"
	UnknownActor           Code = "SE_UNKNOWN_ACTOR"
	NoMaskPng              Code = "SE_SCAN_NO_MASK_PNG"
	NoMaskJSON             Code = "SE_SCAN_NO_MASK_JSON"
	NoApprox               Code = "SE_SCAN_NO_APPROX"
	ImageTooSmall          Code = "SE_SCAN_IMAGE_TOO_SMALL"
	UnreadableImageType    Code = "SE_SCAN_STATIC_UNREADABLE_IMAGE_TYPE"
	ImageGrewTooSmall      Code = "SE_SCAN_IMAGE_GREW_TOO_SMALL"
	ImageTooManyIterations Code = "SE_SCAN_IMAGE_TOO_MANY_ITERATIONS"
	PipelineError          Code = "SE_PIPELINE_ERROR"
	PipelineOsError        Code = "SE_PIPELINE_OS_ERROR"
	PipelineTimeout        Code = "SE_PIPELINE_TIMEOUT"
	PipelineReturnValue    Code = "SE_PIPELINE_RETURN_VALUE"
	ConfigMissing          Code = "SE_CONFIG_MISSING"
	ConfigValue            Code = "SE_CONFIG_VALUE"
	SvgTransformScale      Code = "SE_SVG_TRANSFORM_SCALE"
	CamTypeUnknown         Code = "SE_CAM_TYPE_UNKNOWN"
	CapNotOpen             Code = "SE_CAP_NOT_OPEN"
	LoadUndistort          Code = "SE_LOAD_UNDISTORT"
	ScanUnknownWb          Code = "SE_SCAN_UNKNOWN_WB"
	ScanUnknownPipeline    Code = "SE_SCAN_UNKNOWN_PIPELINE"
	Timeout                Code = "SE_TIMEOUT"
	ReturnValue            Code = "SE_RETURN_VALUE"
	DebugFail              Code = "SE_DEBUG_FAIL"
	SkippedException       Code = "SE_SKIPPED_EXCEPTION"
)

// Error is the tagged sum value every leaf component raises.
type Error struct {
	Code          Code
	Template      string
	Params        map[string]any
	PrivateParams map[string]any
	UUID          uuid.UUID

	message string
}

// New builds a *Error, rendering Template against Params immediately so
// Message() never has to re-walk the template.
func New(code Code, template string, params map[string]any) *Error {
	return NewWithPrivate(code, template, params, nil)
}

// NewWithPrivate additionally attaches parameters that must never be
// surfaced to clients (e.g. absolute paths leaking server layout).
func NewWithPrivate(code Code, template string, params, private map[string]any) *Error {
	if params == nil {
		params = map[string]any{}
	}
	if private == nil {
		private = map[string]any{}
	}
	e := &Error{
		Code:          code,
		Template:      template,
		Params:        params,
		PrivateParams: private,
		UUID:          uuid.New(),
	}
	e.message = formatMessage(template, params)
	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.message, e.UUID)
}

// Message returns the rendered, client-facing message.
func (e *Error) Message() string {
	return e.message
}

// formatMessage substitutes `{key}` placeholders against params, leaving
// unknown placeholders untouched rather than failing; a malformed template
// must never itself become the source of an unhandled panic.
func formatMessage(template string, params map[string]any) string {
	msg := template
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{"+k+"}", fmt.Sprintf("%v", v))
	}
	return msg
}

// As reports whether err is a *Error with the given code, the idiom most
// call sites use instead of raw type assertions.
func As(err error, code Code) bool {
	se, ok := err.(*Error)
	return ok && se.Code == code
}

// Collapse implements the fine_grained_errors policy: when fineGrained is
// false, any *Error is rewritten to the given fallback code/template;
// anything else (a non-Scanarium failure, or fineGrained being true)
// passes through unchanged.
func Collapse(err error, fineGrained bool, fallback *Error) error {
	if err == nil {
		return nil
	}
	if fineGrained {
		return err
	}
	if _, ok := err.(*Error); ok {
		return fallback
	}
	return err
}

// UnknownQrError is the canned fallback most detail errors collapse into.
func UnknownQrError() *Error {
	return New(UnknownQr, "Unknown QR code", nil)
}

// PipelineErrorOpaque is the canned fallback for pipeline detail errors.
func PipelineErrorOpaque() *Error {
	return New(PipelineError, "Server-side image processing failed", nil)
}
