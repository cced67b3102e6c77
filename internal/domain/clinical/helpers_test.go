package clinical

import (
	"testing"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

func moneyNGN(t *testing.T, amount float64) valueobject.Money {
	t.Helper()
	return valueobject.NewMoneyNGNFromFloat(amount)
}
