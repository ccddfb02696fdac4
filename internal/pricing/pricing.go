// Package pricing computes per-message unit cost and campaign totals.
// All values are whole KRW; there is no sub-unit precision anywhere in the
// product, so everything stays in integer arithmetic.
package pricing

// Steps is the tiered-pricing table: a base cost per message plus a fixed
// surcharge for each targeting dimension that actually restricts the
// audience.
type Steps struct {
	Base          int
	Location      int
	Gender        int
	Age           int
	Amount        int
	Industry      int
	CarouselFirst int
}

// DefaultSteps mirrors the production price card.
func DefaultSteps() Steps {
	return Steps{
		Base:          100,
		Location:      50,
		Gender:        50,
		Age:           50,
		Amount:        50,
		Industry:      50,
		CarouselFirst: 100,
	}
}

// Filters captures which dimensions are restricted away from the "all"
// sentinel. Callers derive these from the draft; pricing itself stays pure.
type Filters struct {
	Gender        bool
	Age           bool
	Location      bool
	Industry      bool
	Amount        bool
	CarouselFirst bool
}

// UnitCost returns the cost of sending one message under the given filters.
func (s Steps) UnitCost(f Filters) int {
	cost := s.Base
	if f.Gender {
		cost += s.Gender
	}
	if f.Age {
		cost += s.Age
	}
	if f.Location {
		cost += s.Location
	}
	if f.Industry {
		cost += s.Industry
	}
	if f.Amount {
		cost += s.Amount
	}
	if f.CarouselFirst {
		cost += s.CarouselFirst
	}
	return cost
}

// TotalCost is the unit cost over the effective recipient count: the daily
// cap for realtime sends, the batch recipient count for batch sends.
// Callers pass whichever applies.
func TotalCost(unitCost, recipients int) int {
	if recipients < 0 {
		recipients = 0
	}
	return unitCost * recipients
}

// RequiredTopUp is how much the advertiser must charge to afford totalCost
// with the given balance; zero when the balance already covers it.
func RequiredTopUp(totalCost, balance int) int {
	if shortage := totalCost - balance; shortage > 0 {
		return shortage
	}
	return 0
}
