package model

// Category 图像类别，决定使用哪种前景提取算法
type Category string

const (
	// CategoryFlatGraphic 图标、地图、卡通等浅色底的平面图形
	CategoryFlatGraphic Category = "flat-graphic"
	// CategoryPhotographic 照片，交给分割模型处理，同时也是默认类别
	CategoryPhotographic Category = "photographic"
)

// DefaultCategory 描述服务不可用时的兜底类别
const DefaultCategory = CategoryPhotographic

func (c Category) Valid() bool {
	return c == CategoryFlatGraphic || c == CategoryPhotographic
}

// ParseCategory 解析类别名，无法识别时返回 false
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

func (c Category) String() string {
	return string(c)
}
