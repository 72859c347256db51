package rewards_test

import (
	"testing"

	"green-roots/internal/rewards"
)

func TestGet(t *testing.T) {
	reward, ok := rewards.Get("seedling_kit")
	if !ok {
		t.Fatal("seedling_kit should exist")
	}
	if reward.PointCost <= 0 {
		t.Errorf("point cost = %d, want positive", reward.PointCost)
	}

	if _, ok := rewards.Get("no_such_reward"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestList_SortedByCost(t *testing.T) {
	items := rewards.List()
	if len(items) != len(rewards.Catalog) {
		t.Fatalf("List() returned %d items, want %d", len(items), len(rewards.Catalog))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].PointCost > items[i].PointCost {
			t.Errorf("catalog not sorted by cost at index %d", i)
		}
	}
}
