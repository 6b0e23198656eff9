package pubsub

import (
	"testing"
	"time"
)

func TestTimestampAfterOrdersByPhysicalThenLogicalThenIssuer(t *testing.T) {
	base := Timestamp{Physical: 100, Logical: 0, Issuer: PeerId("a")}

	later := Timestamp{Physical: 101, Logical: 0, Issuer: PeerId("a")}
	if !later.After(base) {
		t.Fatalf("a later physical time must be After an earlier one")
	}

	tie := Timestamp{Physical: 100, Logical: 1, Issuer: PeerId("a")}
	if !tie.After(base) {
		t.Fatalf("a higher logical counter at the same physical time must be After")
	}

	issuerTie := Timestamp{Physical: 100, Logical: 0, Issuer: PeerId("b")}
	if !issuerTie.After(base) {
		t.Fatalf("issuer id breaks a full tie deterministically")
	}
}

func TestDefaultClockRejectsTimestampBeyondSkewWindow(t *testing.T) {
	clock := NewDefaultClock(PeerId("local"), 1*time.Second)

	future := Timestamp{Physical: time.Now().Add(10 * time.Second).UnixMilli(), Issuer: PeerId("remote")}
	if err := clock.UpdateWithTimestamp(future); err == nil {
		t.Fatalf("expected a timestamp far beyond the skew window to be rejected")
	}
}

func TestDefaultClockAcceptsTimestampWithinSkewWindow(t *testing.T) {
	clock := NewDefaultClock(PeerId("local"), 5*time.Second)

	near := Timestamp{Physical: time.Now().Add(1 * time.Second).UnixMilli(), Issuer: PeerId("remote")}
	if err := clock.UpdateWithTimestamp(near); err != nil {
		t.Fatalf("did not expect an error within the skew window: %s", err)
	}
}

// treatTimestamp must stamp samples that arrive with no DataInfo at all and
// must refuse samples whose timestamp falls outside the configured skew
// window, dropping them rather than routing data stamped too far ahead of
// the local clock (S6).
func TestTreatTimestampStampsAndGates(t *testing.T) {
	clock := NewDefaultClock(PeerId("local"), 1*time.Second)

	out, err := treatTimestamp(clock, nil)
	if err != nil {
		t.Fatalf("unexpected error stamping a nil DataInfo: %s", err)
	}
	if out.Timestamp == nil {
		t.Fatalf("expected a freshly minted timestamp")
	}

	badInfo := &DataInfo{Timestamp: &Timestamp{
		Physical: time.Now().Add(10 * time.Second).UnixMilli(),
		Issuer:   PeerId("remote"),
	}}
	if _, err := treatTimestamp(clock, badInfo); err == nil {
		t.Fatalf("expected a skewed remote timestamp to be rejected")
	}
}
