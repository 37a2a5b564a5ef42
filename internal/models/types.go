package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// scanJSON 兼容驱动返回 []byte 或 string 的 JSON 列
func scanJSON(value interface{}, dst interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}

// StringArray 字符串数组类型，用于存储 tags、variant options 等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	*s = StringArray{}
	return scanJSON(value, s)
}

// StringMap 字符串键值对，用于存储所选规格
type StringMap map[string]string

// Value 实现 driver.Valuer 接口
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (m *StringMap) Scan(value interface{}) error {
	*m = StringMap{}
	return scanJSON(value, m)
}

// Key 返回规格的规范化表示（键排序），空规格返回空串
func (m StringMap) Key() string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strings.TrimSpace(k)+"="+strings.TrimSpace(m[k]))
	}
	return strings.Join(parts, ";")
}

// Image 素材引用
type Image struct {
	PublicID string `json:"publicId"` // 素材存储中的标识
	URL      string `json:"url"`      // 访问地址
}

// Value 实现 driver.Valuer 接口
func (i Image) Value() (driver.Value, error) {
	b, err := json.Marshal(i)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (i *Image) Scan(value interface{}) error {
	*i = Image{}
	return scanJSON(value, i)
}

// Images 图片数组
type Images []Image

// Value 实现 driver.Valuer 接口
func (s Images) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (s *Images) Scan(value interface{}) error {
	*s = Images{}
	return scanJSON(value, s)
}

// First 返回首图地址
func (s Images) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0].URL
}

// Variant 商品规格定义，例如 Size: [Small, Large]
type Variant struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Variants 规格数组
type Variants []Variant

// Value 实现 driver.Valuer 接口
func (s Variants) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (s *Variants) Scan(value interface{}) error {
	*s = Variants{}
	return scanJSON(value, s)
}

// Address 用户地址
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Value 实现 driver.Valuer 接口
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (a *Address) Scan(value interface{}) error {
	*a = Address{}
	return scanJSON(value, a)
}
