package payment

import (
	"fmt"
	"strings"

	"a2g/internal/model"
)

type GrantKind int

const (
	GrantPro GrantKind = iota + 1
	GrantSingleItem
)

func (k GrantKind) String() string {
	switch k {
	case GrantPro:
		return "pro"
	case GrantSingleItem:
		return "single_item"
	default:
		return "unknown"
	}
}

// PlanGrant is the parsed form of a gateway plan string:
// either Pro, or SingleItem with the content type and id it unlocks.
type PlanGrant struct {
	Kind        GrantKind
	ContentType model.ItemKind
	ContentID   string
}

const singlePrefix = "single_"

// ParsePlan turns "pro", "single_note" or "single_test" into a PlanGrant.
// Single item plans require a content id.
func ParsePlan(plan string, contentID *string) (PlanGrant, error) {
	if plan == string(model.PlanPro) {
		return PlanGrant{Kind: GrantPro}, nil
	}
	if !strings.HasPrefix(plan, singlePrefix) {
		return PlanGrant{}, fmt.Errorf("%w: unknown plan %q", ErrInvalidPayload, plan)
	}
	kind := model.ItemKind(strings.TrimPrefix(plan, singlePrefix))
	if kind != model.ItemKindNote && kind != model.ItemKindTest {
		return PlanGrant{}, fmt.Errorf("%w: unknown content type in plan %q", ErrInvalidPayload, plan)
	}
	if contentID == nil || strings.TrimSpace(*contentID) == "" {
		return PlanGrant{}, fmt.Errorf("%w: plan %q requires a content id", ErrInvalidPayload, plan)
	}
	return PlanGrant{Kind: GrantSingleItem, ContentType: kind, ContentID: *contentID}, nil
}
