package tower

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestResolveSafeDoor_Deterministic 相同输入得到相同安全门
func TestResolveSafeDoor_Deterministic(t *testing.T) {
	digest := "a3f5c9e2b1d4f6a8c0e2b4d6f8a0c2e4a3f5c9e2b1d4f6a8c0e2b4d6f8a0c2e4"
	for doors := 2; doors <= 4; doors++ {
		first := ResolveSafeDoor(digest, "client-seed", doors)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, ResolveSafeDoor(digest, "client-seed", doors))
		}
	}
}

// TestResolveSafeDoor_InRange 安全门编号始终在 [0, doors) 内
func TestResolveSafeDoor_InRange(t *testing.T) {
	for doors := 2; doors <= 4; doors++ {
		for i := 0; i < 500; i++ {
			digest := fmt.Sprintf("digest-%d", i)
			safe := ResolveSafeDoor(digest, "seed", doors)
			assert.GreaterOrEqual(t, safe, 0)
			assert.Less(t, safe, doors)
		}
	}
}

// TestResolveSafeDoor_ClientSeedMatters 玩家种子参与结果推导
func TestResolveSafeDoor_ClientSeedMatters(t *testing.T) {
	digest := "fixed-digest"
	differs := false
	for i := 0; i < 50; i++ {
		a := ResolveSafeDoor(digest, fmt.Sprintf("seed-a-%d", i), 4)
		b := ResolveSafeDoor(digest, fmt.Sprintf("seed-b-%d", i), 4)
		if a != b {
			differs = true
			break
		}
	}
	assert.True(t, differs, "不同玩家种子应能产生不同安全门")
}

// TestResolveSafeDoor_AllDoorsReachable 每扇门都可能是安全门
func TestResolveSafeDoor_AllDoorsReachable(t *testing.T) {
	for doors := 2; doors <= 4; doors++ {
		seen := make(map[int]bool)
		for i := 0; i < 500 && len(seen) < doors; i++ {
			digest := fmt.Sprintf("digest-%d", i)
			seen[ResolveSafeDoor(digest, "seed", doors)] = true
		}
		assert.Len(t, seen, doors, "doors=%d", doors)
	}
}

// TestResolveSafeDoor_EmptyClientSeed 空玩家种子也能推导
func TestResolveSafeDoor_EmptyClientSeed(t *testing.T) {
	safe := ResolveSafeDoor("some-digest", "", 3)
	assert.GreaterOrEqual(t, safe, 0)
	assert.Less(t, safe, 3)
}
