// Package main drives the chat HTTP fallback of a running server through
// the estimate script and checks the result on the admin lead endpoint.
//
// Scenarios cover:
//   - Happy-path estimate request
//   - Phone and email validation re-prompts
//   - "Other" service with free-text entry
//   - Greeting call button
//   - Stale button presses
//
// Usage:
//
//	ADMIN_JWT_SECRET=... API_BASE_URL=... go run ./scripts/e2e [scenario-name]
//	ADMIN_JWT_SECRET=... API_BASE_URL=... go run ./scripts/e2e              # runs all
//	ADMIN_JWT_SECRET=... API_BASE_URL=... go run ./scripts/e2e happy-path   # runs one
//
// Scenarios that submit a lead clear the lead store first.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/acegrowth/ace-chatbot/internal/chatflow"
	httpmiddleware "github.com/acegrowth/ace-chatbot/internal/http/middleware"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/presenter"
	"github.com/acegrowth/ace-chatbot/internal/webchat"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

const (
	testName    = "E2E Tester"
	testPhone   = "(555) 010-2030"
	testEmail   = "e2e@example.com"
	testService = "Roofing"
)

var (
	apiBase string
	jwt     string
)

var client = &http.Client{Timeout: 10 * time.Second}

// ---------------------------------------------------------------------------
// Scenario definition
// ---------------------------------------------------------------------------

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// chat is one HTTP fallback session.
type chat struct {
	sessionID string
	step      string
	frames    []presenter.Frame
}

func post(path string, body map[string]string) (webchat.ExchangeResponse, error) {
	var out webchat.ExchangeResponse
	raw, _ := json.Marshal(body)
	resp, err := client.Post(apiBase+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return out, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

// start opens a session and returns it with the greeting frames.
func start() (*chat, error) {
	resp, err := post("/chat/message", map[string]string{})
	if err != nil {
		return nil, err
	}
	return &chat{sessionID: resp.SessionID, step: resp.Step, frames: resp.Frames}, nil
}

func (c *chat) say(text string) error {
	resp, err := post("/chat/message", map[string]string{"session_id": c.sessionID, "text": text})
	if err != nil {
		return err
	}
	c.step, c.frames = resp.Step, resp.Frames
	return nil
}

func (c *chat) choose(id string) error {
	resp, err := post("/chat/action", map[string]string{"session_id": c.sessionID, "choice": id})
	if err != nil {
		return err
	}
	c.step, c.frames = resp.Step, resp.Frames
	return nil
}

// botText joins the bot messages of the last exchange.
func (c *chat) botText() string {
	var parts []string
	for _, f := range c.frames {
		if f.Type == presenter.FrameMessage && f.Role == presenter.RoleBot {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (c *chat) buttons() []chatflow.Button {
	for _, f := range c.frames {
		if f.Type == presenter.FrameButtons {
			return f.Buttons
		}
	}
	return nil
}

func (c *chat) hasFrame(frameType string) bool {
	for _, f := range c.frames {
		if f.Type == frameType {
			return true
		}
	}
	return false
}

func adminRequest(method string) (*http.Response, error) {
	req, _ := http.NewRequest(method, apiBase+"/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer "+jwt)
	return client.Do(req)
}

func clearLeads() error {
	resp, err := adminRequest(http.MethodDelete)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clear leads returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func listLeads() ([]leads.Lead, error) {
	resp, err := adminRequest(http.MethodGet)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list leads returned %d", resp.StatusCode)
	}
	var out []leads.Lead
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// walkToService answers the name, phone and email prompts.
func walkToService(t *T, c *chat) bool {
	steps := []struct {
		do   func() error
		want string
	}{
		{func() error { return c.choose(chatflow.ChoiceStartEstimate) }, chatflow.StepGetName.String()},
		{func() error { return c.say(testName) }, chatflow.StepGetPhoneInput.String()},
		{func() error { return c.say(testPhone) }, chatflow.StepGetEmailInput.String()},
		{func() error { return c.say(testEmail) }, chatflow.StepGetServiceSelect.String()},
	}
	for _, s := range steps {
		if err := s.do(); err != nil {
			t.fatalf("%v", err)
			return false
		}
		if c.step != s.want {
			t.fatalf("expected step %s, got %s", s.want, c.step)
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func scenarioHappyPath(t *T) {
	if err := clearLeads(); err != nil {
		t.fatalf("clear leads: %v", err)
		return
	}
	c, err := start()
	if err != nil {
		t.fatalf("start: %v", err)
		return
	}
	t.check("greeting offers two buttons", len(c.buttons()) == 2)
	if !walkToService(t, c) {
		return
	}
	t.check("service buttons include Other", func() bool {
		for _, b := range c.buttons() {
			if b.ID == chatflow.ChoiceOther {
				return true
			}
		}
		return false
	}())
	if err := c.choose(chatflow.ServiceChoiceID(testService)); err != nil {
		t.fatalf("choose service: %v", err)
		return
	}
	if err := c.say("Replace about 20 shingles after the storm"); err != nil {
		t.fatalf("description: %v", err)
		return
	}
	t.check("conversation completes", c.step == chatflow.StepComplete.String())
	t.check("success message names the visitor", strings.Contains(c.botText(), testName))
	t.check("input disabled after completion", c.hasFrame(presenter.FrameInput))

	stored, err := listLeads()
	if err != nil {
		t.fatalf("list leads: %v", err)
		return
	}
	t.check("exactly one lead stored", len(stored) == 1)
	if len(stored) == 1 {
		l := stored[0]
		t.check("lead fields match", l.Name == testName && l.Phone == testPhone && l.Email == testEmail && l.Service == testService)
		t.check("lead has id and timestamp", l.ID != "" && !l.Timestamp.IsZero())
	}
}

func scenarioValidation(t *T) {
	c, err := start()
	if err != nil {
		t.fatalf("start: %v", err)
		return
	}
	_ = c.choose(chatflow.ChoiceStartEstimate)
	_ = c.say(testName)

	if err := c.say("12345"); err != nil {
		t.fatalf("short phone: %v", err)
		return
	}
	t.check("short phone re-prompts", c.step == chatflow.StepGetPhoneInput.String())
	_ = c.say(testPhone)

	if err := c.say("not-an-email"); err != nil {
		t.fatalf("bad email: %v", err)
		return
	}
	t.check("bad email re-prompts", c.step == chatflow.StepGetEmailInput.String())
	_ = c.say(testEmail)
	t.check("valid email advances", c.step == chatflow.StepGetServiceSelect.String())
}

func scenarioOtherService(t *T) {
	if err := clearLeads(); err != nil {
		t.fatalf("clear leads: %v", err)
		return
	}
	c, err := start()
	if err != nil {
		t.fatalf("start: %v", err)
		return
	}
	if !walkToService(t, c) {
		return
	}
	if err := c.choose(chatflow.ChoiceOther); err != nil {
		t.fatalf("choose other: %v", err)
		return
	}
	t.check("other asks for free text", c.step == chatflow.StepServiceOther.String())
	_ = c.say("Deck repair")
	_ = c.say("skip")
	t.check("conversation completes", c.step == chatflow.StepComplete.String())

	stored, err := listLeads()
	if err != nil {
		t.fatalf("list leads: %v", err)
		return
	}
	t.check("custom service and skipped description stored",
		len(stored) == 1 && stored[0].Service == "Deck repair" && stored[0].Description == "")
}

func scenarioGreetingCall(t *T) {
	c, err := start()
	if err != nil {
		t.fatalf("start: %v", err)
		return
	}
	if err := c.choose(chatflow.ChoiceCall); err != nil {
		t.fatalf("call: %v", err)
		return
	}
	t.check("call emits a dial frame", c.hasFrame(presenter.FrameDial))
	t.check("stays on greeting", c.step == chatflow.StepGreeting.String())
}

func scenarioStaleChoice(t *T) {
	c, err := start()
	if err != nil {
		t.fatalf("start: %v", err)
		return
	}
	_ = c.choose(chatflow.ChoiceStartEstimate)
	if err := c.choose(chatflow.ChoiceStartEstimate); err != nil {
		t.fatalf("stale choice: %v", err)
		return
	}
	t.check("stale choice ignored", c.step == chatflow.StepGetName.String() && len(c.frames) == 0)
	t.check("history has the greeting", func() bool {
		resp, err := client.Get(apiBase + "/chat/history?session=" + c.sessionID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var h webchat.HistoryResponse
		if json.NewDecoder(resp.Body).Decode(&h) != nil || len(h.Messages) == 0 {
			return false
		}
		return containsAll(h.Messages[0].Text, "estimate")
	}())
}

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	secret := os.Getenv("ADMIN_JWT_SECRET")
	if apiBase == "" || secret == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL and ADMIN_JWT_SECRET required")
		os.Exit(1)
	}
	token, err := httpmiddleware.IssueAdminToken(secret, "e2e", 15*time.Minute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: sign admin token: %v\n", err)
		os.Exit(1)
	}
	jwt = token

	scenarios := []scenario{
		{"happy-path", scenarioHappyPath},
		{"validation", scenarioValidation},
		{"other-service", scenarioOtherService},
		{"greeting-call", scenarioGreetingCall},
		{"stale-choice", scenarioStaleChoice},
	}

	// Filter by name if argument provided
	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	scenarioResults := make([]string, 0)

	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}

		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)

		totalPassed += t.passed
		totalFailed += t.failed

		status := "✅"
		if t.failed > 0 {
			status = "❌"
		}
		scenarioResults = append(scenarioResults, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range scenarioResults {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)

	if totalFailed > 0 {
		fmt.Println("\n❌ SOME TESTS FAILED")
		os.Exit(1)
	}
	fmt.Println("\n✅ ALL TESTS PASSED")
}
