package oracle

import "testing"

func TestBucketToUTCDay(t *testing.T) {
	// 2021-06-15T13:45:00Z -> 2021-06-15T00:00:00Z
	in := int64(1623764700)
	want := int64(1623715200)
	if got := bucketToUTCDay(in); got != want {
		t.Errorf("bucketToUTCDay(%d) = %d, want %d", in, got, want)
	}
}

func TestBucketToUTCDayIsIdempotentWithinDay(t *testing.T) {
	start := bucketToUTCDay(1623764700)
	endOfDay := bucketToUTCDay(1623764700 + 3600*10)
	if start != endOfDay {
		t.Errorf("expected same bucket across one UTC day, got %d and %d", start, endOfDay)
	}
}

func TestClientCachesByDay(t *testing.T) {
	c := NewClient("http://example.invalid", "0xpair", nil)
	c.cache[bucketToUTCDay(1623764700)] = 42.5

	got, err := c.GetNativeUSDPrice(nil, 1623764700) //nolint:staticcheck // cache hit never dereferences ctx
	if err != nil {
		t.Fatalf("GetNativeUSDPrice: %v", err)
	}
	if got != 42.5 {
		t.Errorf("expected cached price 42.5, got %v", got)
	}
}
