package domain

// Category 决定一条 URL 走哪种测量策略。
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
)
