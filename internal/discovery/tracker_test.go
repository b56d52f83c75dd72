package discovery

import (
	"strings"
	"sync"
	"testing"

	"base-token-tracker/internal/domain"
)

func TestTracker_AdmitOnce(t *testing.T) {
	tracker := NewTracker(KeyContract)

	rec := &domain.TokenRecord{Contract: addrA, Name: "Pepe"}

	if !tracker.Admit(rec) {
		t.Error("first admit should return true")
	}
	if tracker.Admit(rec) {
		t.Error("second admit should return false")
	}

	other := &domain.TokenRecord{Contract: addrB, Name: "Doge"}
	if !tracker.Admit(other) {
		t.Error("different key should admit regardless of prior calls")
	}
	if tracker.Seen() != 2 {
		t.Errorf("expected 2 seen keys, got %d", tracker.Seen())
	}
}

func TestTracker_ContractModeIgnoresName(t *testing.T) {
	tracker := NewTracker(KeyContract)

	tracker.Admit(&domain.TokenRecord{Contract: addrA, Name: "First"})
	if tracker.Admit(&domain.TokenRecord{Contract: addrA, Name: "Renamed"}) {
		t.Error("contract mode must not re-admit on name change")
	}
}

func TestTracker_ContractNameModeReadmitsOnNameChange(t *testing.T) {
	tracker := NewTracker(KeyContractName)

	if !tracker.Admit(&domain.TokenRecord{Contract: addrA, Name: "First"}) {
		t.Error("first observation should admit")
	}
	if tracker.Admit(&domain.TokenRecord{Contract: addrA, Name: "First"}) {
		t.Error("same contract+name should not re-admit")
	}
	if !tracker.Admit(&domain.TokenRecord{Contract: addrA, Name: "Renamed"}) {
		t.Error("changed name should re-admit in composite mode")
	}
}

func TestTracker_CaseInsensitiveIdentity(t *testing.T) {
	tracker := NewTracker(KeyContractName)

	mixed := "0xAbCdEfAbCdEfAbCdEfAbCdEfAbCdEfAbCdEfAbCd"
	tracker.Admit(&domain.TokenRecord{Contract: mixed, Name: "Pepe"})
	if tracker.Admit(&domain.TokenRecord{Contract: strings.ToLower(mixed), Name: " PEPE "}) {
		t.Error("identity must normalize contract case and name whitespace/case")
	}
}

func TestTracker_DefaultMode(t *testing.T) {
	tracker := NewTracker("")

	tracker.Admit(&domain.TokenRecord{Contract: addrA, Name: "A"})
	if tracker.Admit(&domain.TokenRecord{Contract: addrA, Name: "B"}) {
		t.Error("default mode should be contract-only")
	}
}

func TestKeyMode_IsValid(t *testing.T) {
	if !KeyContract.IsValid() || !KeyContractName.IsValid() {
		t.Error("known modes should be valid")
	}
	if KeyMode("BOGUS").IsValid() {
		t.Error("unknown mode should be invalid")
	}
}

func TestTracker_ConcurrentAdmit(t *testing.T) {
	tracker := NewTracker(KeyContract)
	rec := &domain.TokenRecord{Contract: addrA, Name: "Pepe"}

	var wg sync.WaitGroup
	admitted := make(chan bool, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- tracker.Admit(rec)
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one admission, got %d", count)
	}
}
