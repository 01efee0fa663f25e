package services

import (
	"context"
	"strings"

	"event-admin/internal/adminapi"
	"event-admin/internal/inflight"
	"event-admin/internal/listview"
	"event-admin/models"
	"event-admin/utils"
)

const (
	mutationPromoCreate = "promo_create"

	// Promo states used by the "state" filter.
	PromoActive    = "active"
	PromoExpired   = "expired"
	PromoExhausted = "exhausted"

	suggestedCodeLength = 8
)

var PromoSearch = []string{"code"}

type PromoService struct {
	deps Deps
	List *listview.Controller[models.PromoCode, string]
}

func NewPromoService(deps Deps) *PromoService {
	deps = deps.withDefaults()
	s := &PromoService{deps: deps}
	s.List = listview.NewController(listview.Config[models.PromoCode, string]{
		Resource: adminapi.ResourcePromos,
		Key:      func(p models.PromoCode) string { return p.Code },
		Fields: listview.Fields[models.PromoCode]{
			"code":          func(p models.PromoCode) string { return p.Code },
			"discount_type": func(p models.PromoCode) string { return string(p.DiscountType) },
			"state":         s.State,
		},
		Search: PromoSearch,
		Load:   deps.API.ListPromoCodes,
	})
	return s
}

// State is active, expired or exhausted. Expiry wins over exhaustion.
func (s *PromoService) State(p models.PromoCode) string {
	switch {
	case p.Expired(s.deps.Clock()):
		return PromoExpired
	case p.Exhausted():
		return PromoExhausted
	}
	return PromoActive
}

// Draft returns a form prefilled with the usual defaults.
func (s *PromoService) Draft() models.PromoDraft {
	return models.NewPromoDraft(s.deps.Clock())
}

// SuggestCode proposes a random code for the create form.
func (s *PromoService) SuggestCode() (string, error) {
	return utils.GenerateCode(suggestedCodeLength)
}

// Create validates draft locally, then creates it. Validation errors come
// back as *status.ValidationError without any call to the API.
func (s *PromoService) Create(ctx context.Context, draft models.PromoDraft) (created adminapi.CreatedPromo, err error) {
	draft = draft.Normalize()

	var who string
	defer func() { s.deps.finish(mutationPromoCreate, draft.Code, who, err) }()

	if err := draft.Validate(s.deps.Clock()); err != nil {
		return adminapi.CreatedPromo{}, err
	}

	// Best effort: the activity record is still useful without a name.
	who, _ = s.deps.Actor.ActorName(ctx)

	err = inflight.Guard(ctx, s.deps.Tracker, inflight.Key("promo", "create"), func(ctx context.Context) error {
		created, err = s.deps.API.CreatePromoCode(ctx, draft)
		if err != nil {
			return err
		}
		s.List.Prepend(created.Promo)
		return nil
	})
	if err != nil {
		return adminapi.CreatedPromo{}, err
	}

	if strings.TrimSpace(created.Message) == "" {
		created.Message = "Promo code created successfully"
	}
	s.deps.announce(ctx, Activity{
		Kind:   ActivityPromoCreated,
		Key:    created.Promo.Code,
		Actor:  who,
		Detail: string(created.Promo.DiscountType),
	})
	return created, nil
}
