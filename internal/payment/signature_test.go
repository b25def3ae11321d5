package payment

import (
	"regexp"
	"testing"
)

const (
	testHashKey = "5294y06JbISpM5x9"
	testHashIV  = "v77hoKGq4kWxNNIS"
)

func sampleParams() map[string]string {
	return map[string]string{
		"MerchantID":        "2000132",
		"MerchantTradeNo":   "C202608300001",
		"MerchantTradeDate": "2026/08/30 12:00:00",
		"PaymentType":       "aio",
		"TotalAmount":       "90",
		"TradeDesc":         "coffeeshop order",
		"ItemName":          "Americano x2",
		"ReturnURL":         "https://shop.example.com/payment/notify",
		"ChoosePayment":     "Credit",
		"EncryptType":       "1",
	}
}

func TestGenerateCheckMacShape(t *testing.T) {
	mac := GenerateCheckMac(sampleParams(), testHashKey, testHashIV)
	if !regexp.MustCompile(`^[0-9A-F]{64}$`).MatchString(mac) {
		t.Fatalf("expected uppercase 64-char hex digest, got %q", mac)
	}
}

func TestGenerateCheckMacIsDeterministic(t *testing.T) {
	first := GenerateCheckMac(sampleParams(), testHashKey, testHashIV)
	second := GenerateCheckMac(sampleParams(), testHashKey, testHashIV)
	if first != second {
		t.Fatalf("same parameters produced different signatures: %q vs %q", first, second)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	params := sampleParams()
	params[CheckMacField] = GenerateCheckMac(params, testHashKey, testHashIV)

	if !VerifyCheckMac(params, testHashKey, testHashIV) {
		t.Fatal("generated signature must verify")
	}
}

func TestVerifyFailsOnAnySingleCharacterChange(t *testing.T) {
	params := sampleParams()
	params[CheckMacField] = GenerateCheckMac(params, testHashKey, testHashIV)

	for key := range sampleParams() {
		tampered := make(map[string]string, len(params))
		for k, v := range params {
			tampered[k] = v
		}
		value := []byte(tampered[key])
		value[0] ^= 1
		tampered[key] = string(value)

		if VerifyCheckMac(tampered, testHashKey, testHashIV) {
			t.Fatalf("tampering with %q still verified", key)
		}
	}
}

func TestVerifyFailsWithoutSignature(t *testing.T) {
	if VerifyCheckMac(sampleParams(), testHashKey, testHashIV) {
		t.Fatal("verification must fail when CheckMacValue is absent")
	}
}

func TestVerifyFailsWithWrongSecrets(t *testing.T) {
	params := sampleParams()
	params[CheckMacField] = GenerateCheckMac(params, testHashKey, testHashIV)

	if VerifyCheckMac(params, testHashKey, "0000000000000000") {
		t.Fatal("verification must fail with a different HashIV")
	}
	if VerifyCheckMac(params, "0000000000000000", testHashIV) {
		t.Fatal("verification must fail with a different HashKey")
	}
}

func TestSignatureCoversValuesNeedingDialectEncoding(t *testing.T) {
	params := sampleParams()
	params["ItemName"] = "Americano (iced) x2#Latte+oat_milk!*"
	params["TradeDesc"] = "order with spaces & symbols ~%"
	params[CheckMacField] = GenerateCheckMac(params, testHashKey, testHashIV)

	if !VerifyCheckMac(params, testHashKey, testHashIV) {
		t.Fatal("values hitting the encoding dialect must still round-trip")
	}
}

func TestGenerateIgnoresExistingSignatureField(t *testing.T) {
	params := sampleParams()
	clean := GenerateCheckMac(params, testHashKey, testHashIV)

	params[CheckMacField] = "FFFF"
	if got := GenerateCheckMac(params, testHashKey, testHashIV); got != clean {
		t.Fatal("CheckMacValue must be excluded from its own computation")
	}
}
