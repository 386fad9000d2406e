package domain

const (
	StrategyImage       = "image"
	StrategyFetchRender = "fetch-render"
	StrategyDirectLoad  = "direct-load"
)

const (
	ErrCodePending             = "pending"
	ErrCodeImageLoadFailed     = "image_load_failed"
	ErrCodeDocumentFetchFailed = "document_fetch_failed"
	ErrCodeDocumentLoadFailed  = "document_load_failed"
	ErrCodeWorkerFailed        = "worker_failed"
	ErrCodeRunInProgress       = "run_in_progress"
	ErrCodeConfigInvalid       = "config_invalid"
	ErrCodeInputEmpty          = "input_empty"
)

const (
	MsgPending            = "testing..."
	MsgImageLoadFailed    = "image load failed"
	MsgDocumentLoadFailed = "document load failed"
)

// Outcome 是单条 URL 的测量结果，与 WorkItem 按下标一一对应。
//
// 时间单位统一为毫秒（float64），与 report JSON 保持一致。
// Success=false 时三个时长均为 0，失败原因在 ErrorCode/ErrorMsg。
type Outcome struct {
	URL         string   `json:"url"`
	RenderedURL string   `json:"rendered_url"`
	Category    Category `json:"category"`
	Strategy    string   `json:"strategy"`

	DownloadMS float64 `json:"download_ms"`
	RenderMS   float64 `json:"render_ms"`
	TotalMS    float64 `json:"total_ms"`

	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	// 以下为附加诊断信息，不参与统计。
	StatusCode int     `json:"status_code,omitempty"`
	Bytes      int64   `json:"bytes,omitempty"`
	TTFBMS     float64 `json:"ttfb_ms,omitempty"`
	Title      string  `json:"title,omitempty"`
}

// Pending 返回批次开始时预置的占位结果；任务结算时会被整体覆盖一次。
func Pending(it WorkItem) Outcome {
	return Outcome{
		URL:       it.URL,
		Category:  it.Category,
		Success:   false,
		ErrorCode: ErrCodePending,
		ErrorMsg:  MsgPending,
	}
}

// IsPending 判断结果是否仍是占位状态。
func (o Outcome) IsPending() bool {
	return !o.Success && o.ErrorCode == ErrCodePending
}

// Failed 构造一个失败结果（时长清零）。
func Failed(it WorkItem, renderedURL, code, msg string) Outcome {
	return Outcome{
		URL:         it.URL,
		RenderedURL: renderedURL,
		Category:    it.Category,
		Success:     false,
		ErrorCode:   code,
		ErrorMsg:    msg,
	}
}
