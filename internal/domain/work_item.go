package domain

// WorkItem 是一次批量测量中的单个输入。
// 创建后不可变：Category 只在批次开始时判定一次，之后不再修正。
type WorkItem struct {
	Index    int
	URL      string
	Category Category
}
