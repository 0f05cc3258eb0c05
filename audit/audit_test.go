package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/outcome"
)

func TestMemoryTrail(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sid := uuid.NewString()

	deal := []card.Card{card.MustNew(card.Ace, card.Spades), card.MustNew(8, card.Clubs)}
	if err := m.RecordDraw(ctx, sid, "p1", deal); err != nil {
		t.Fatal(err)
	}
	if err := m.RecordDraw(ctx, "other", "p9", deal[:1]); err != nil {
		t.Fatal(err)
	}
	if err := m.RecordOutcome(ctx, &outcome.Outcome{SessionID: sid, WinnerIDs: []string{"p1"}}); err != nil {
		t.Fatal(err)
	}

	draws := m.Draws(sid)
	if len(draws) != 1 {
		t.Fatalf("draws for %s = %d", sid, len(draws))
	}
	if len(draws[0].Cards) != 2 || draws[0].Cards[0] != deal[0] {
		t.Fatalf("raw cards not preserved: %v", draws[0].Cards)
	}
	if len(m.Outcomes()) != 1 {
		t.Fatal("outcome not recorded")
	}

	// the recorder must hold a copy, not the caller's slice
	deal[0] = card.MustNew(2, card.Hearts)
	if m.Draws(sid)[0].Cards[0] == deal[0] {
		t.Fatal("recorded draw aliases caller slice")
	}
}

func TestSignVerifyOutcome(t *testing.T) {
	key := []byte("test-attest-key")
	out := &outcome.Outcome{
		SessionID:   uuid.NewString(),
		Variant:     "drawpoker",
		WinnerIDs:   []string{"p2"},
		Margin:      135,
		SpecialFlag: true,
	}

	tok, err := SignOutcome(out, key, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := VerifyOutcome(tok, key)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != out.SessionID || claims.Margin != 135 || !claims.SpecialFlag {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	if _, err := VerifyOutcome(tok, []byte("wrong-key")); err == nil {
		t.Fatal("wrong key must fail verification")
	}
	if _, err := SignOutcome(out, nil, time.Minute); err == nil {
		t.Fatal("empty key must be rejected")
	}
}
