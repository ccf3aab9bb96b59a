package management

import "time"

// ThresholdRule is one stored classification rule, in either style.
// Operator-style rows carry per-bucket expressions; banded rows carry a
// risk direction and cut points. Columns of the other style stay NULL.
type ThresholdRule struct {
	ID            string    `json:"id" db:"id"`
	Environment   string    `json:"environment" db:"environment"`
	PropertyName  string    `json:"property_name" db:"property_name"`
	Style         string    `json:"style" db:"style"`
	GreenExpr     string    `json:"green_expr,omitempty" db:"green_expr"`
	YellowExpr    string    `json:"yellow_expr,omitempty" db:"yellow_expr"`
	RedExpr       string    `json:"red_expr,omitempty" db:"red_expr"`
	RiskDirection string    `json:"risk_direction,omitempty" db:"risk_direction"`
	LevelNone     *float64  `json:"level_none,omitempty" db:"level_none"`
	LevelLow      *float64  `json:"level_low,omitempty" db:"level_low"`
	LevelMedium   *float64  `json:"level_medium,omitempty" db:"level_medium"`
	LevelHigh     *float64  `json:"level_high,omitempty" db:"level_high"`
	Enabled       bool      `json:"enabled" db:"enabled"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type CreateThresholdRuleRequest struct {
	Environment   string   `json:"environment" binding:"required"`
	PropertyName  string   `json:"property_name" binding:"required"`
	Style         string   `json:"style" binding:"required"`
	GreenExpr     string   `json:"green_expr"`
	YellowExpr    string   `json:"yellow_expr"`
	RedExpr       string   `json:"red_expr"`
	RiskDirection string   `json:"risk_direction"`
	LevelNone     *float64 `json:"level_none"`
	LevelLow      *float64 `json:"level_low"`
	LevelMedium   *float64 `json:"level_medium"`
	LevelHigh     *float64 `json:"level_high"`
	Enabled       *bool    `json:"enabled"`
}

type UpdateThresholdRuleRequest struct {
	GreenExpr     *string  `json:"green_expr"`
	YellowExpr    *string  `json:"yellow_expr"`
	RedExpr       *string  `json:"red_expr"`
	RiskDirection *string  `json:"risk_direction"`
	LevelNone     *float64 `json:"level_none"`
	LevelLow      *float64 `json:"level_low"`
	LevelMedium   *float64 `json:"level_medium"`
	LevelHigh     *float64 `json:"level_high"`
	Enabled       *bool    `json:"enabled"`
}

// ClassifyPreviewRequest evaluates one value against the stored rules
// without touching the pipeline.
type ClassifyPreviewRequest struct {
	Environment  string `json:"environment" binding:"required"`
	PropertyName string `json:"property_name" binding:"required"`
	Value        string `json:"value" binding:"required"`
}

type ClassifyPreviewResponse struct {
	Level    string   `json:"level"`
	Color    string   `json:"color"`
	Warnings []string `json:"warnings,omitempty"`
}
