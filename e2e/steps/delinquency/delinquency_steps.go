package delinquency

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	AdminPOST(path string, body any) error
	AdminPUT(path string, body any) error
	StatusCode() int
	DecodeBody(v any) error
	SetAlias(name, value string)
	Alias(name string) (string, error)
}

// RegisterSteps registers delinquency-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &delinquencySteps{tc: tc}

	ctx.Step(`^an? (\w+) loan "([^"]*)"$`, steps.loanWithStatus)
	ctx.Step(`^the business date is "([^"]*)"$`, steps.businessDateIs)
	ctx.Step(`^I pause loan "([^"]*)" from "([^"]*)" to "([^"]*)"$`, steps.pause)
	ctx.Step(`^I pause loan "([^"]*)" from "([^"]*)" to "([^"]*)" using format "([^"]*)"$`, steps.pauseWithFormat)
	ctx.Step(`^I resume loan "([^"]*)" on "([^"]*)"$`, steps.resume)
	ctx.Step(`^loan "([^"]*)" was paused from "([^"]*)" to "([^"]*)"$`, steps.pausedEarlier)
	ctx.Step(`^loan "([^"]*)" was resumed on "([^"]*)"$`, steps.resumedEarlier)

	ctx.Step(`^the action should be accepted$`, steps.accepted)
	ctx.Step(`^the action should be rejected with "([^"]*)"$`, steps.rejectedWith)
	ctx.Step(`^loan "([^"]*)" should have (\d+) actions?$`, steps.actionCount)
	ctx.Step(`^loan "([^"]*)" should have pause periods "([^"]*)"$`, steps.pausePeriods)
}

type delinquencySteps struct {
	tc TestContext
}

func (s *delinquencySteps) loanWithStatus(_ context.Context, status, name string) error {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return err
	}
	if err := s.tc.AdminPOST("/admin/loans", map[string]string{
		"external_id": name + "-" + hex.EncodeToString(suffix),
		"status":      status,
	}); err != nil {
		return err
	}
	if s.tc.StatusCode() != 201 {
		return fmt.Errorf("register loan: status %d", s.tc.StatusCode())
	}
	var loan struct {
		ID string `json:"id"`
	}
	if err := s.tc.DecodeBody(&loan); err != nil {
		return err
	}
	s.tc.SetAlias(name, loan.ID)
	return nil
}

func (s *delinquencySteps) businessDateIs(_ context.Context, date string) error {
	if err := s.tc.AdminPUT("/admin/businessdate", map[string]string{"date": date}); err != nil {
		return err
	}
	if s.tc.StatusCode() != 200 {
		return fmt.Errorf("set business date: status %d", s.tc.StatusCode())
	}
	return nil
}

func (s *delinquencySteps) pause(_ context.Context, name, start, end string) error {
	return s.createAction(name, map[string]string{"action": "pause", "startDate": start, "endDate": end})
}

func (s *delinquencySteps) pauseWithFormat(_ context.Context, name, start, end, format string) error {
	return s.createAction(name, map[string]string{
		"action": "pause", "startDate": start, "endDate": end,
		"dateFormat": format, "locale": "en",
	})
}

func (s *delinquencySteps) resume(_ context.Context, name, start string) error {
	return s.createAction(name, map[string]string{"action": "resume", "startDate": start})
}

// pausedEarlier records history by moving the business date to the start.
func (s *delinquencySteps) pausedEarlier(ctx context.Context, name, start, end string) error {
	if err := s.businessDateIs(ctx, start); err != nil {
		return err
	}
	if err := s.pause(ctx, name, start, end); err != nil {
		return err
	}
	return s.accepted(ctx)
}

func (s *delinquencySteps) resumedEarlier(ctx context.Context, name, date string) error {
	if err := s.businessDateIs(ctx, date); err != nil {
		return err
	}
	if err := s.resume(ctx, name, date); err != nil {
		return err
	}
	return s.accepted(ctx)
}

func (s *delinquencySteps) createAction(name string, body map[string]string) error {
	loanID, err := s.tc.Alias(name)
	if err != nil {
		return err
	}
	return s.tc.POST("/loans/"+loanID+"/delinquency/actions", body)
}

func (s *delinquencySteps) accepted(_ context.Context) error {
	if s.tc.StatusCode() != 201 {
		var body map[string]any
		_ = s.tc.DecodeBody(&body)
		return fmt.Errorf("expected 201, got %d: %v", s.tc.StatusCode(), body)
	}
	return nil
}

func (s *delinquencySteps) rejectedWith(_ context.Context, kinds string) error {
	if s.tc.StatusCode() != 400 {
		return fmt.Errorf("expected 400, got %d", s.tc.StatusCode())
	}
	var body struct {
		Error  string `json:"error"`
		Errors []struct {
			Kind string `json:"kind"`
		} `json:"errors"`
	}
	if err := s.tc.DecodeBody(&body); err != nil {
		return err
	}
	got := make([]string, len(body.Errors))
	for i, e := range body.Errors {
		got[i] = e.Kind
	}
	want := strings.Split(kinds, ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	if !slices.Equal(got, want) {
		return fmt.Errorf("expected violations %v, got %v", want, got)
	}
	return nil
}

func (s *delinquencySteps) actionCount(_ context.Context, name string, n int) error {
	loanID, err := s.tc.Alias(name)
	if err != nil {
		return err
	}
	if err := s.tc.GET("/loans/" + loanID + "/delinquency/actions"); err != nil {
		return err
	}
	var body struct {
		Actions []any `json:"actions"`
	}
	if err := s.tc.DecodeBody(&body); err != nil {
		return err
	}
	if len(body.Actions) != n {
		return fmt.Errorf("expected %d actions, got %d", n, len(body.Actions))
	}
	return nil
}

// pausePeriods compares against "start..end[*]" items separated by commas,
// where * marks the active period.
func (s *delinquencySteps) pausePeriods(_ context.Context, name, expected string) error {
	loanID, err := s.tc.Alias(name)
	if err != nil {
		return err
	}
	if err := s.tc.GET("/loans/" + loanID + "/delinquency/pause-periods"); err != nil {
		return err
	}
	var body struct {
		PausePeriods []struct {
			StartDate string `json:"startDate"`
			EndDate   string `json:"endDate"`
			Active    bool   `json:"active"`
		} `json:"pausePeriods"`
	}
	if err := s.tc.DecodeBody(&body); err != nil {
		return err
	}
	got := make([]string, len(body.PausePeriods))
	for i, p := range body.PausePeriods {
		got[i] = p.StartDate + ".." + p.EndDate
		if p.Active {
			got[i] += "*"
		}
	}
	want := strings.Split(expected, ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	if !slices.Equal(got, want) {
		return fmt.Errorf("expected pause periods %v, got %v", want, got)
	}
	return nil
}
