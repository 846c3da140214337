package pipeline

import (
	"testing"

	"github.com/theirongolddev/spendlens/internal/model"
)

func benchHistory(days int) []model.Transaction {
	var txs []model.Transaction
	for d := 0; d < days; d++ {
		for i, cat := range model.Categories {
			if (d+i)%(i+1) == 0 {
				txs = append(txs, expense(d, float64(5+(d*i)%40), cat))
			}
		}
	}
	return txs
}

func BenchmarkBuild(b *testing.B) {
	txs := benchHistory(365)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if t := Build(txs); t.Len() == 0 {
			b.Fatal("empty table")
		}
	}
}

func BenchmarkResampleWeekly(b *testing.B) {
	table := Build(benchHistory(365))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ResampleWeekly(table)
	}
}
