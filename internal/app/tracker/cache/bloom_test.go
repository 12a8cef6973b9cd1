package cache

import "testing"

func TestBloomFilter(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	bf.Add("abc")
	bf.Add("Deal99")

	if !bf.MightExist("abc") {
		t.Error("added code must report might-exist")
	}
	if !bf.MightExist("Deal99") {
		t.Error("added code must report might-exist")
	}
	// 未添加的元素大概率报告不存在（1000 容量下两个元素不会误判）
	if bf.MightExist("never-added-code-xyz") {
		t.Error("unexpected false positive for fresh filter")
	}
	if bf.Count() == 0 {
		t.Error("count should be non-zero after adds")
	}
}
