package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgrade/internal/management"
)

const (
	managementServiceURL = "http://localhost:8084"
)

func TestManagementServiceHealth(t *testing.T) {
	url := fmt.Sprintf("%s/health", managementServiceURL)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&health)
	require.NoError(t, err)
	assert.NotNil(t, health["status"])
}

func TestThresholdRulesCRUD(t *testing.T) {
	createReq := management.CreateThresholdRuleRequest{
		Environment:  "e2e",
		PropertyName: "CPU Usage",
		Style:        management.StyleOperator,
		GreenExpr:    ">=0 && <70",
		YellowExpr:   ">=70 && <90",
		RedExpr:      ">=90",
		Enabled:      boolPtr(true),
	}

	ruleID := createThresholdRule(t, createReq)
	defer deleteThresholdRule(t, ruleID)

	rule := getThresholdRule(t, ruleID)
	assert.Equal(t, createReq.Environment, rule.Environment)
	assert.Equal(t, createReq.PropertyName, rule.PropertyName)
	assert.Equal(t, createReq.GreenExpr, rule.GreenExpr)
	assert.True(t, rule.Enabled)

	rules := listThresholdRules(t, "e2e")
	found := false
	for _, r := range rules {
		if r.ID == ruleID {
			found = true
			break
		}
	}
	assert.True(t, found, "created rule should appear in list")

	yellow := ">=60 && <90"
	updateReq := management.UpdateThresholdRuleRequest{
		YellowExpr: &yellow,
	}
	updated := updateThresholdRule(t, ruleID, updateReq)
	assert.Equal(t, yellow, updated.YellowExpr)

	versions := getRuleVersions(t, ruleID)
	assert.GreaterOrEqual(t, len(versions), 2)
}

func TestThresholdRuleValidation(t *testing.T) {
	createReq := management.CreateThresholdRuleRequest{
		Environment:  "e2e",
		PropertyName: "Broken Property",
		Style:        management.StyleOperator,
		GreenExpr:    "not a condition",
	}

	resp := createThresholdRuleWithError(t, createReq)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_ERROR", body["error_code"])
}

func TestClassifyPreview(t *testing.T) {
	createReq := management.CreateThresholdRuleRequest{
		Environment:  "e2e-preview",
		PropertyName: "CPU Usage",
		Style:        management.StyleOperator,
		GreenExpr:    ">=0 && <70",
		YellowExpr:   ">=70 && <90",
		RedExpr:      ">=90",
	}
	ruleID := createThresholdRule(t, createReq)
	defer deleteThresholdRule(t, ruleID)

	previewReq := management.ClassifyPreviewRequest{
		Environment:  "e2e-preview",
		PropertyName: "CPU Usage",
		Value:        "75%",
	}

	body, err := json.Marshal(previewReq)
	require.NoError(t, err)

	url := fmt.Sprintf("%s/api/v1/classify/preview", managementServiceURL)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var preview management.ClassifyPreviewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&preview))
	assert.Equal(t, "medium", preview.Level)
	assert.Equal(t, "yellow", preview.Color)
}

func createThresholdRule(t *testing.T, req management.CreateThresholdRuleRequest) string {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	url := fmt.Sprintf("%s/api/v1/rules/thresholds", managementServiceURL)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rule management.ThresholdRule
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rule))
	require.NotEmpty(t, rule.ID)
	return rule.ID
}

func createThresholdRuleWithError(t *testing.T, req management.CreateThresholdRuleRequest) *http.Response {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	url := fmt.Sprintf("%s/api/v1/rules/thresholds", managementServiceURL)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func getThresholdRule(t *testing.T, id string) *management.ThresholdRule {
	t.Helper()

	url := fmt.Sprintf("%s/api/v1/rules/thresholds/%s", managementServiceURL, id)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rule management.ThresholdRule
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rule))
	return &rule
}

func listThresholdRules(t *testing.T, environment string) []management.ThresholdRule {
	t.Helper()

	url := fmt.Sprintf("%s/api/v1/rules/thresholds?environment=%s", managementServiceURL, environment)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rules []management.ThresholdRule `json:"rules"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Rules
}

func updateThresholdRule(t *testing.T, id string, req management.UpdateThresholdRuleRequest) *management.ThresholdRule {
	t.Helper()

	body, err := json.Marshal(req)
	require.NoError(t, err)

	url := fmt.Sprintf("%s/api/v1/rules/thresholds/%s", managementServiceURL, id)
	httpReq, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rule management.ThresholdRule
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rule))
	return &rule
}

func deleteThresholdRule(t *testing.T, id string) {
	t.Helper()

	url := fmt.Sprintf("%s/api/v1/rules/thresholds/%s", managementServiceURL, id)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
}

func getRuleVersions(t *testing.T, id string) []management.RuleVersion {
	t.Helper()

	url := fmt.Sprintf("%s/api/v1/rules/thresholds/%s/versions", managementServiceURL, id)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Versions []management.RuleVersion `json:"versions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Versions
}

func boolPtr(b bool) *bool {
	return &b
}
