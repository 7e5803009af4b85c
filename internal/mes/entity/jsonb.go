package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/engine"
)

// JSONB JSONB类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan JSONB: %w", err)
	}
	return json.Unmarshal(bytes, j)
}

// InspectionDetail 检验明细（检验组/检验项/附件），整体存为一列
type InspectionDetail engine.DetailData

func (d InspectionDetail) Value() (driver.Value, error) {
	return json.Marshal(engine.DetailData(d))
}

func (d *InspectionDetail) Scan(value interface{}) error {
	if value == nil {
		*d = InspectionDetail{}
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan InspectionDetail: %w", err)
	}
	return json.Unmarshal(bytes, (*engine.DetailData)(d))
}

// postgres returns []byte, sqlite may return string
func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
