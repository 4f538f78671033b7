/*****************************************************************************************************************/

package dispatch

/*****************************************************************************************************************/

import (
	"context"
	"encoding/json"
	"testing"
)

/*****************************************************************************************************************/

func TestDispatchRoutesBySuffix(t *testing.T) {
	var called string

	router := NewRouter(map[string]Handler{
		"cutout":    func(context.Context, json.RawMessage) (interface{}, error) { called = "cutout"; return "ok", nil },
		"queryexps": func(context.Context, json.RawMessage) (interface{}, error) { called = "queryexps"; return "ok", nil },
	})

	_, err := router.Dispatch(context.Background(), "arn:aws:lambda:us-east-1:1234:function:dasch-science-lambda-cutout", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != "cutout" {
		t.Fatalf("expected cutout to be invoked, got %q", called)
	}
}

/*****************************************************************************************************************/

func TestDispatchRejectsUnknownARN(t *testing.T) {
	router := NewRouter(map[string]Handler{"cutout": func(context.Context, json.RawMessage) (interface{}, error) { return nil, nil }})

	_, err := router.Dispatch(context.Background(), "arn:aws:lambda:us-east-1:1234:function:something-else", nil)
	if err == nil {
		t.Fatalf("expected an error for an unrecognized ARN")
	}
}

/*****************************************************************************************************************/

func TestDispatchUsesLocalTestARNOverride(t *testing.T) {
	t.Setenv(localTestARNEnv, "arn:aws:lambda:us-east-1:1234:function:dasch-science-lambda-querycat")

	var called string
	router := NewRouter(map[string]Handler{
		"querycat": func(context.Context, json.RawMessage) (interface{}, error) { called = "querycat"; return "ok", nil },
	})

	_, err := router.Dispatch(context.Background(), "arn:aws:lambda:us-east-1:1234:function:test_function", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != "querycat" {
		t.Fatalf("expected querycat to be invoked via override, got %q", called)
	}
}

/*****************************************************************************************************************/

func TestDispatchRequiresOverrideEnvForLocalTest(t *testing.T) {
	t.Setenv(localTestARNEnv, "")

	router := NewRouter(map[string]Handler{"cutout": func(context.Context, json.RawMessage) (interface{}, error) { return nil, nil }})

	_, err := router.Dispatch(context.Background(), "arn:aws:lambda:us-east-1:1234:function:test_function", nil)
	if err == nil {
		t.Fatalf("expected an error when the local-test override is unset")
	}
}
