package quantum

import "testing"

func TestGcdUint64(t *testing.T) {
	if g := gcdUint64(48, 18); g != 6 {
		t.Fatalf("gcd(48,18) = %d, want 6", g)
	}
}

func TestShorFactorFindsTrivialFactorViaGCD(t *testing.T) {
	// candidate shares a factor with N outright; no circuit simulation needed.
	res, err := ShorFactor(21, 6, 6, []uint64{3})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Fatal("expected a factor to be found")
	}
	if res.Factor1*res.Factor2 != 21 {
		t.Fatalf("factors %d*%d != 21", res.Factor1, res.Factor2)
	}
}

func TestRequiredExponentQubits(t *testing.T) {
	n := RequiredExponentQubits(15)
	if n < 8 {
		t.Fatalf("RequiredExponentQubits(15) = %d, want >= 8", n)
	}
}

func TestShorPeriodCircuitPreservesNorm(t *testing.T) {
	s, err := ShorPeriodCircuit(2, 15, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !s.CheckNorm1(1e-6) {
		t.Fatal("expected normalized state after phase estimation circuit")
	}
}
