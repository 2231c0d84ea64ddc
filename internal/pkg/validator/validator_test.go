package validator

import "testing"

type decisionRequest struct {
	Status string `json:"status" validate:"required,decision"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,actor_role"`
}

func TestDecisionTag(t *testing.T) {
	if errs := Validate(&decisionRequest{Status: "accepted"}); errs != nil {
		t.Fatalf("accepted should pass, got %v", errs)
	}
	if errs := Validate(&decisionRequest{Status: "declined"}); errs != nil {
		t.Fatalf("declined should pass, got %v", errs)
	}

	errs := Validate(&decisionRequest{Status: "pending"})
	if errs["status"] == "" {
		t.Fatalf("pending should be rejected under the json field name, got %v", errs)
	}
}

func TestActorRoleTag(t *testing.T) {
	if errs := Validate(&roleRequest{Role: "provider"}); errs != nil {
		t.Fatalf("provider should pass, got %v", errs)
	}
	if errs := Validate(&roleRequest{Role: "admin"}); errs["role"] == "" {
		t.Fatalf("admin should be rejected, got %v", errs)
	}
}

func TestRequiredUsesJSONName(t *testing.T) {
	errs := Validate(&decisionRequest{})
	if errs["status"] != "This field is required" {
		t.Fatalf("unexpected errors: %v", errs)
	}
}
