package utils

import (
	"encoding/json"

	"gorm.io/datatypes"
	"k8s.io/klog/v2"
)

func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("JSON序列化失败: %v", err)
		return ""
	}
	return string(jsonData)
}

// ToJSONColumn 序列化为 JSON 列，nil 或空 map 返回 nil
func ToJSONColumn(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return nil
	}
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("JSON列序列化失败: %v", err)
		return nil
	}
	return datatypes.JSON(jsonData)
}
