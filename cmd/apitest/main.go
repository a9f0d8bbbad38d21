// Command apitest smoke-tests a running lunisolar API against known dates.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Conversion is the response of /api/v1/convert
type Conversion struct {
	LunarYear   int    `json:"lunarYear"`
	LunarMonth  int    `json:"lunarMonth"`
	LunarDay    int    `json:"lunarDay"`
	IsLeapMonth bool   `json:"isLeapMonth"`
	YearStem    string `json:"yearStem"`
	YearBranch  string `json:"yearBranch"`
	MonthStem   string `json:"monthStem"`
	MonthBranch string `json:"monthBranch"`
	DayStem     string `json:"dayStem"`
	DayBranch   string `json:"dayBranch"`
	HourStem    string `json:"hourStem"`
	HourBranch  string `json:"hourBranch"`
	LocalDate   string `json:"localDate"`
	LocalTime   string `json:"localTime"`

	ConstructionStar string `json:"constructionStar"`
	GYPSpirit        string `json:"gypSpirit"`
}

func (c Conversion) pillars() string {
	return fmt.Sprintf("%s%s %s%s %s%s %s%s",
		c.YearStem, c.YearBranch, c.MonthStem, c.MonthBranch,
		c.DayStem, c.DayBranch, c.HourStem, c.HourBranch)
}

// BatchResponse is the response of /api/v1/convert/batch
type BatchResponse struct {
	Count   int          `json:"count"`
	Results []Conversion `json:"results"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
}

// fixture is a date whose conversion is published in almanacs.
type fixture struct {
	date, time, tz string
	year, month    int
	day            int
	leap           bool
	pillars        string
}

var fixtures = []fixture{
	{"2023-04-01", "12:00", "Asia/Shanghai", 2023, 2, 11, true, "癸卯 乙卯 己丑 庚午"},
	{"2023-01-22", "00:30", "Asia/Shanghai", 2023, 1, 1, false, "癸卯 甲寅 庚辰 丙子"},
	{"2023-01-21", "23:30", "Asia/Shanghai", 2022, 12, 30, false, "壬寅 癸丑 己卯 丙子"},
	{"2024-02-10", "12:00", "Asia/Shanghai", 2024, 1, 1, false, "甲辰 丙寅 甲辰 庚午"},
	{"2023-12-22", "12:00", "Asia/Shanghai", 2023, 11, 10, false, "癸卯 甲子 甲寅 庚午"},
	{"2024-01-01", "00:00", "UTC", 2023, 11, 20, false, "癸卯 甲子 甲子 甲子"},
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("Lunisolar API Test Suite")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Println()

	// Run test groups
	tr.testHealth()
	tr.testFixtures()
	tr.testBatch()
	tr.testYearTables()
	tr.testEdgeCases()

	// Print summary
	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testFixtures() {
	tr.printSection("Known Dates")

	for _, f := range fixtures {
		name := fmt.Sprintf("%s %s %s", f.date, f.time, f.tz)
		path := fmt.Sprintf("/api/v1/convert?date=%s&time=%s&tz=%s", f.date, f.time, f.tz)

		var c Conversion
		if err := tr.getData(path, &c); err != nil {
			tr.recordError(name, err.Error())
			continue
		}
		if msg := f.check(c); msg != "" {
			tr.recordError(name, msg)
			continue
		}

		tr.recordSuccess(fmt.Sprintf("%s: %d-%s%d-%d [%s]",
			name, c.LunarYear, leapMark(c.IsLeapMonth), c.LunarMonth, c.LunarDay, c.pillars()))
		if tr.verbose {
			fmt.Printf("    Star: %s, Spirit: %s\n", c.ConstructionStar, c.GYPSpirit)
		}
	}
}

func (f fixture) check(c Conversion) string {
	switch {
	case c.LunarYear != f.year || c.LunarMonth != f.month || c.LunarDay != f.day:
		return fmt.Sprintf("got %d-%d-%d, want %d-%d-%d", c.LunarYear, c.LunarMonth, c.LunarDay, f.year, f.month, f.day)
	case c.IsLeapMonth != f.leap:
		return fmt.Sprintf("leap = %v, want %v", c.IsLeapMonth, f.leap)
	case c.pillars() != f.pillars:
		return fmt.Sprintf("pillars %s, want %s", c.pillars(), f.pillars)
	}
	return ""
}

func (tr *TestRunner) testBatch() {
	tr.printSection("Batch Conversion")

	dates := make([]map[string]string, 0, len(fixtures))
	for _, f := range fixtures {
		if f.tz == "Asia/Shanghai" {
			dates = append(dates, map[string]string{"date": f.date, "time": f.time})
		}
	}

	var batch BatchResponse
	if err := tr.postData("/api/v1/convert/batch", map[string]any{"timezone": "Asia/Shanghai", "dates": dates}, &batch); err != nil {
		tr.recordError("Batch", err.Error())
		return
	}
	if batch.Count != len(dates) {
		tr.recordError("Batch", fmt.Sprintf("count = %d, want %d", batch.Count, len(dates)))
		return
	}
	tr.recordSuccess(fmt.Sprintf("Batch of %d dates converted", batch.Count))
}

func (tr *TestRunner) testYearTables() {
	tr.printSection("Year Tables (2023)")

	var months struct {
		Months []struct {
			Month  int  `json:"month"`
			IsLeap bool `json:"isLeap"`
		} `json:"months"`
	}
	if err := tr.getData("/api/v1/years/2023/months", &months); err != nil {
		tr.recordError("Months", err.Error())
	} else {
		leaps := 0
		for _, m := range months.Months {
			if m.IsLeap {
				leaps++
			}
		}
		if len(months.Months) == 12 && leaps == 1 {
			tr.recordSuccess("12 month starts with one leap month")
		} else {
			tr.recordError("Months", fmt.Sprintf("%d months, %d leap", len(months.Months), leaps))
		}
	}

	var terms struct {
		Terms []json.RawMessage `json:"terms"`
	}
	if err := tr.getData("/api/v1/years/2023/terms", &terms); err != nil {
		tr.recordError("Terms", err.Error())
	} else if len(terms.Terms) != 24 {
		tr.recordError("Terms", fmt.Sprintf("%d terms, want 24", len(terms.Terms)))
	} else {
		tr.recordSuccess("24 solar terms")
	}

	resp, err := tr.getRaw("/api/v1/years/2023/calendar.ics")
	if err != nil {
		tr.recordError("Calendar", err.Error())
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK && bytes.HasPrefix(body, []byte("BEGIN:VCALENDAR")) {
		tr.recordSuccess(fmt.Sprintf("Calendar feed (%d bytes)", len(body)))
	} else {
		tr.recordError("Calendar", fmt.Sprintf("status %d", resp.StatusCode))
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	checks := []struct {
		name, path string
		status     int
	}{
		{"Invalid date rejected", "/api/v1/convert?date=2023-02-30", http.StatusBadRequest},
		{"Wrong format rejected", "/api/v1/convert?date=2023/04/01", http.StatusBadRequest},
		{"Unknown timezone rejected", "/api/v1/convert?date=2023-04-01&tz=Nowhere/City", http.StatusBadRequest},
		{"Missing parameters rejected", "/api/v1/convert", http.StatusBadRequest},
		{"Invalid year rejected", "/api/v1/years/0/months", http.StatusBadRequest},
	}

	for _, c := range checks {
		resp, err := tr.getRaw(c.path)
		if err != nil {
			tr.recordError(c.name, err.Error())
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == c.status {
			tr.recordSuccess(c.name)
		} else {
			tr.recordError(c.name, fmt.Sprintf("status %d, want %d", resp.StatusCode, c.status))
		}
	}

	// Leap day
	var c Conversion
	if err := tr.getData("/api/v1/convert?date=2024-02-29&tz=Asia/Shanghai", &c); err != nil {
		tr.recordError("Leap day", err.Error())
	} else {
		tr.recordSuccess(fmt.Sprintf("Leap day (2024-02-29) handled: %d-%d-%d", c.LunarYear, c.LunarMonth, c.LunarDay))
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) getData(path string, target any) error {
	resp, err := tr.getRaw(path)
	if err != nil {
		return err
	}
	return decodeData(resp, target)
}

func (tr *TestRunner) postData(path string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := tr.client.Post(tr.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return decodeData(resp, target)
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	return tr.client.Get(tr.baseURL + path)
}

func decodeData(resp *http.Response, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return fmt.Errorf("API error: %s", errMsg)
	}

	return json.Unmarshal(apiResp.Data, target)
}

func leapMark(leap bool) string {
	if leap {
		return "闰"
	}
	return ""
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
	}

	if tr.errorCount == 0 {
		fmt.Println("All tests passed! ✓")
	} else {
		fmt.Printf("Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	verbose := flag.Bool("v", false, "Verbose output (show almanac details)")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
