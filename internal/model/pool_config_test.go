package model

import "testing"

func validPool() PoolConfig {
	return PoolConfig{
		Name:         "USD pool",
		Address:      "0x1111111111111111111111111111111111111111",
		LocalAddress: "0x2222222222222222222222222222222222222222",
		Tokens:       []string{"USDC", "USDT"},
		Decimals:     []int{6, 6},
		PriceIDs:     []string{"usd-coin", "tether"},
	}
}

func TestPoolConfigValidate(t *testing.T) {
	pool := validPool()
	if err := pool.Validate(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pool.Validate(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	misaligned := validPool()
	misaligned.Decimals = []int{6}
	if err := misaligned.Validate(true); err == nil {
		t.Fatalf("expected error for misaligned lists")
	}

	badAddr := validPool()
	badAddr.LocalAddress = "localhost"
	if err := badAddr.Validate(false); err == nil {
		t.Fatalf("expected error for invalid local address")
	}
	if err := badAddr.Validate(true); err != nil {
		t.Fatalf("production address should still be valid: %v", err)
	}
}

func TestPoolConfigToken(t *testing.T) {
	pool := validPool()
	meta, ok := pool.Token(1)
	if !ok {
		t.Fatalf("expected token 1")
	}
	if meta.Symbol != "USDT" || meta.Decimals != 6 || meta.PriceID != "tether" {
		t.Fatalf("token meta mismatch: %+v", meta)
	}
	if _, ok := pool.Token(2); ok {
		t.Fatalf("expected out of range")
	}
	if pool.AddressFor(false) != pool.LocalAddress {
		t.Fatalf("address selection mismatch")
	}
}
