package strategy

import "testing"

func TestPartition(t *testing.T) {
	tests := []struct {
		name string
		n, t int
		want []Block
	}{
		{"empty", 0, 4, nil},
		{"exact", 8, 4, []Block{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"remainder", 10, 4, []Block{{0, 2}, {2, 4}, {4, 6}, {6, 8}, {8, 10}}},
		{"more threads than agents", 3, 8, []Block{{0, 1}, {1, 2}, {2, 3}}},
		{"zero threads", 5, 0, []Block{{0, 5}}},
		{"single thread", 5, 1, []Block{{0, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.n, tt.t)
			if len(got) != len(tt.want) {
				t.Fatalf("Partition(%d, %d) = %v, want %v", tt.n, tt.t, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("block %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPartitionCoversEveryIndexOnce(t *testing.T) {
	for n := 0; n <= 50; n++ {
		for threads := 0; threads <= 12; threads++ {
			seen := make([]int, n)
			for _, b := range Partition(n, threads) {
				if b.Len() <= 0 {
					t.Fatalf("Partition(%d, %d) produced empty block %v", n, threads, b)
				}
				for i := b.Start; i < b.End; i++ {
					seen[i]++
				}
			}
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("Partition(%d, %d): index %d covered %d times", n, threads, i, c)
				}
			}
		}
	}
}

func TestThreadPartitionClampsThreads(t *testing.T) {
	agents := makeAgents(2, 9)
	ThreadPartition{Threads: 16}.Run(agents)
	for i, a := range agents {
		if a.Steps() != 1 {
			t.Errorf("agent %d stepped %d times, want 1", i, a.Steps())
		}
	}
}

func TestNewThreadPartitionDefault(t *testing.T) {
	if got := NewThreadPartition(0).Threads; got <= 0 {
		t.Errorf("NewThreadPartition(0).Threads = %d, want positive default", got)
	}
	if got := NewThreadPartition(6).Threads; got != 6 {
		t.Errorf("NewThreadPartition(6).Threads = %d, want 6", got)
	}
}
