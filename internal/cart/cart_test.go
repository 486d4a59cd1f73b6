package cart_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/KylianTITREN/e-kom-backend/internal/cart"
	"github.com/KylianTITREN/e-kom-backend/internal/catalog"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubStore satisfies catalog.Store with an in-memory entity map. Only the
// methods the revalidator touches are implemented; the rest panic via the
// embedded interface.
type stubStore struct {
	catalog.Store
	entities map[uuid.UUID]catalog.Entity
}

func newStubStore(entities ...catalog.Entity) *stubStore {
	s := &stubStore{entities: make(map[uuid.UUID]catalog.Entity)}
	for _, e := range entities {
		s.entities[e.DocumentID] = e
	}
	return s
}

func (s *stubStore) FindByID(_ context.Context, id uuid.UUID) (catalog.Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return catalog.Entity{}, catalog.ErrNotFound
	}
	return e, nil
}

func entity(name string, price float64, published bool) catalog.Entity {
	return catalog.Entity{
		DocumentID: uuid.New(),
		Kind:       catalog.KindProduct,
		Name:       name,
		Price:      price,
		Published:  published,
	}
}

// ─── Validate — acceptance ────────────────────────────────────────────────────

func TestValidate_AcceptsMatchingCart(t *testing.T) {
	mug := entity("Mug", 12.00, true)
	r := cart.NewRevalidator(newStubStore(mug))

	res, err := r.Validate(context.Background(), []cart.Item{
		{ID: mug.DocumentID.String(), Name: "Mug", Price: 12.00, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK {
		t.Fatalf("cart rejected: %v", res.Violations)
	}
	if got, ok := res.Entities[mug.DocumentID.String()]; !ok || got.Name != "Mug" {
		t.Errorf("entity not recorded for accepted item: %+v", res.Entities)
	}
}

func TestValidate_ToleratesSubCentDrift(t *testing.T) {
	mug := entity("Mug", 12.00, true)
	r := cart.NewRevalidator(newStubStore(mug))

	// One cent of rounding is within tolerance.
	res, err := r.Validate(context.Background(), []cart.Item{
		{ID: mug.DocumentID.String(), Name: "Mug", Price: 12.01, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK {
		t.Errorf("cart rejected for sub-cent drift: %v", res.Violations)
	}
}

// ─── Validate — violations ────────────────────────────────────────────────────

func TestValidate_PriceDrift(t *testing.T) {
	mug := entity("Mug", 15.00, true)
	r := cart.NewRevalidator(newStubStore(mug))

	res, err := r.Validate(context.Background(), []cart.Item{
		{ID: mug.DocumentID.String(), Name: "Mug", Price: 12.00, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatal("cart accepted despite price drift")
	}
	want := `Le prix de "Mug" a changé : 12.00€ → 15.00€`
	if len(res.Violations) != 1 || res.Violations[0] != want {
		t.Errorf("violations = %v, want [%s]", res.Violations, want)
	}
	if res.Entities != nil {
		t.Error("Entities must be nil on rejection")
	}
}

func TestValidate_UnknownAndUnpublished(t *testing.T) {
	hidden := entity("Bracelet", 29.90, false)
	r := cart.NewRevalidator(newStubStore(hidden))

	res, err := r.Validate(context.Background(), []cart.Item{
		{ID: "not-a-uuid", Name: "Fantôme", Price: 5, Quantity: 1},
		{ID: uuid.NewString(), Name: "Disparu", Price: 5, Quantity: 1},
		{ID: hidden.DocumentID.String(), Name: "Bracelet", Price: 29.90, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatal("cart accepted")
	}
	if len(res.Violations) != 3 {
		t.Fatalf("got %d violations, want 3: %v", len(res.Violations), res.Violations)
	}
	if res.Violations[0] != `Produit introuvable : "Fantôme"` {
		t.Errorf("violation[0] = %q", res.Violations[0])
	}
	if res.Violations[1] != `Produit introuvable : "Disparu"` {
		t.Errorf("violation[1] = %q", res.Violations[1])
	}
	if res.Violations[2] != `Produit indisponible : "Bracelet"` {
		t.Errorf("violation[2] = %q", res.Violations[2])
	}
}

func TestValidate_QuantityBounds(t *testing.T) {
	mug := entity("Mug", 12.00, true)
	r := cart.NewRevalidator(newStubStore(mug))

	for _, qty := range []int64{0, -1, 100} {
		res, err := r.Validate(context.Background(), []cart.Item{
			{ID: mug.DocumentID.String(), Name: "Mug", Price: 12.00, Quantity: qty},
		})
		if err != nil {
			t.Fatalf("qty=%d: unexpected error: %v", qty, err)
		}
		if res.OK {
			t.Errorf("qty=%d: cart accepted", qty)
		}
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	mug := entity("Mug", 15.00, true)
	r := cart.NewRevalidator(newStubStore(mug))

	// Bad quantity AND stale price on the same line: both must be reported.
	res, err := r.Validate(context.Background(), []cart.Item{
		{ID: mug.DocumentID.String(), Name: "Mug", Price: 12.00, Quantity: 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Errorf("got %d violations, want 2: %v", len(res.Violations), res.Violations)
	}
}

// ─── Validate — customizations ────────────────────────────────────────────────

func TestValidate_CustomizationAddonChecked(t *testing.T) {
	mug := entity("Mug", 12.00, true)
	engraving := entity("Gravure texte", 8.00, true)
	engraving.Kind = catalog.KindEngraving
	r := cart.NewRevalidator(newStubStore(mug, engraving))

	res, err := r.Validate(context.Background(), []cart.Item{
		{
			ID: mug.DocumentID.String(), Name: "Mug", Price: 12.00, Quantity: 1,
			Customization: &cart.Customization{
				AddonID: engraving.DocumentID.String(),
				Label:   "Gravure texte",
				Price:   8.00,
				Text:    "Joyeux anniversaire",
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK {
		t.Fatalf("cart rejected: %v", res.Violations)
	}
	if _, ok := res.Entities[engraving.DocumentID.String()]; !ok {
		t.Error("addon entity not recorded")
	}
}

func TestValidate_CustomizationStaleAddonPrice(t *testing.T) {
	mug := entity("Mug", 12.00, true)
	engraving := entity("Gravure texte", 10.00, true)
	r := cart.NewRevalidator(newStubStore(mug, engraving))

	res, err := r.Validate(context.Background(), []cart.Item{
		{
			ID: mug.DocumentID.String(), Name: "Mug", Price: 12.00, Quantity: 1,
			Customization: &cart.Customization{
				AddonID: engraving.DocumentID.String(),
				Label:   "Gravure texte",
				Price:   8.00,
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatal("cart accepted despite stale addon price")
	}
}

func TestValidate_CustomTextTooLong(t *testing.T) {
	mug := entity("Mug", 12.00, true)
	engraving := entity("Gravure texte", 8.00, true)
	r := cart.NewRevalidator(newStubStore(mug, engraving))

	res, err := r.Validate(context.Background(), []cart.Item{
		{
			ID: mug.DocumentID.String(), Name: "Mug", Price: 12.00, Quantity: 1,
			Customization: &cart.Customization{
				AddonID: engraving.DocumentID.String(),
				Label:   "Gravure texte",
				Price:   8.00,
				Text:    strings.Repeat("a", cart.MaxCustomText+1),
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatal("cart accepted despite oversized engraving text")
	}
	if res.Violations[0] != `Texte de gravure trop long pour "Mug"` {
		t.Errorf("violation = %q", res.Violations[0])
	}
}
