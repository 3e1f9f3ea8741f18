package processor

import (
	"errors"
	"fmt"

	"cv-agent-go/internal/storage/models"
)

// 基础错误
var (
	ErrExtractionFailed = errors.New("提取简历文本失败")
	ErrCVNotFound       = errors.New("简历不存在")
	ErrInvalidInput     = errors.New("输入不合法")
	ErrStoreUnavailable = errors.New("记录存储未配置")
	ErrFileUnavailable  = errors.New("原始文件不可用")
)

// ErrorCode 跨服务边界传递的错误分类，由 handler 映射为 HTTP 状态码
type ErrorCode string

const (
	CodeInvalidInput     ErrorCode = "invalid_input"
	CodeExtractionFailed ErrorCode = "extraction_failed"
	CodeNotFound         ErrorCode = "not_found"
	CodeUnavailable      ErrorCode = "unavailable"
	CodeInternal         ErrorCode = "internal"
)

// ProcessingError 带分类和操作信息的错误
type ProcessingError struct {
	Code    ErrorCode
	Op      string
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (操作:%s): %v", e.Message, e.Op, e.Err)
	}
	return fmt.Sprintf("%s (操作:%s)", e.Message, e.Op)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, op, message string, err error) error {
	return &ProcessingError{Code: code, Op: op, Message: message, Err: err}
}

// CodeOf 取出错误分类，非 ProcessingError 视为内部错误
func CodeOf(err error) ErrorCode {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}

// UploadStatus 上传结果
type UploadStatus string

const (
	UploadCreated           UploadStatus = "created"
	UploadDuplicateContent  UploadStatus = "duplicate_content"
	UploadDuplicateFilename UploadStatus = "duplicate_filename"
	UploadLimitReached      UploadStatus = "limit_reached"
)

// 上传结果提示语
const (
	MsgUploaded          = "CV uploaded and parsed successfully"
	MsgDuplicateContent  = "This CV has already been uploaded"
	MsgDuplicateFilename = "You have already uploaded a CV with this filename"
	MsgExtractionFailed  = "Failed to extract text from CV"
	MsgCVNotFound        = "CV not found"
	MsgCVDeleted         = "CV deleted successfully"
	MsgLimitReached      = "You can only save up to %d CVs."
	MsgFileUnavailable   = "Original file is not available"
)

// UploadOutcome 上传的业务结果。重复上传不是错误
type UploadOutcome struct {
	Status  UploadStatus     `json:"status"`
	Message string           `json:"message"`
	CV      *models.CVRecord `json:"cv,omitempty"`
}
