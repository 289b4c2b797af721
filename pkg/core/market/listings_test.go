package market

import (
	"math"
	"testing"
)

const listingsPage = `
<html><body>
<h1>Used Fleet Vans</h1>
<table>
  <tr><th>About</th><th>Contact</th></tr>
  <tr><td>nav junk</td><td>more junk</td></tr>
</table>
<table>
  <tr><th>Model</th><th>Trim</th><th>Region</th><th>Age (months)</th><th>Mileage</th><th>Price</th></tr>
  <tr><td>Transit</td><td>XL</td><td>NE</td><td>36</td><td>41,200 mi</td><td>$24,500</td></tr>
  <tr><td>Transit</td><td>XLT</td><td>SE</td><td>38</td><td>45,900 mi</td><td>$26,100</td></tr>
  <tr><td>Transit</td><td>XL</td><td>MW</td><td>34</td><td>39,000 mi</td><td>$25,000</td></tr>
  <tr><td>Sprinter</td><td></td><td>NE</td><td>40</td><td>52,300 mi</td><td>$31,750</td></tr>
  <tr><td>Sprinter</td><td></td><td>SE</td><td>37</td><td>48,100 mi</td><td>$33,200</td></tr>
  <tr><td>ProMaster</td><td></td><td>MW</td><td>35</td><td>44,000 mi</td><td>call for price</td></tr>
</table>
</body></html>`

func TestParseListings(t *testing.T) {
	comps, err := ParseListings(listingsPage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The "call for price" row is skipped, the nav table ignored.
	if len(comps) != 5 {
		t.Fatalf("expected 5 comps, got %d", len(comps))
	}

	first := comps[0]
	if first.Model != "Transit" || first.Trim != "XL" || first.Region != "NE" {
		t.Errorf("unexpected first comp: %+v", first)
	}
	if math.Abs(first.Price-24500) > 1e-9 {
		t.Errorf("expected price 24500, got %f", first.Price)
	}
	if math.Abs(first.Mileage-41200) > 1e-9 {
		t.Errorf("expected mileage 41200, got %f", first.Mileage)
	}
	if math.Abs(first.AgeMonths-36) > 1e-9 {
		t.Errorf("expected age 36, got %f", first.AgeMonths)
	}
}

func TestParseListingsNoTables(t *testing.T) {
	if _, err := ParseListings("<html><body><p>nothing here</p></body></html>"); err == nil {
		t.Error("expected error when no listings tables are present")
	}
}

func TestMedianPriceByModel(t *testing.T) {
	comps, err := ParseListings(listingsPage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	medians := MedianPriceByModel(comps)
	if math.Abs(medians["Transit"]-25000) > 1e-9 {
		t.Errorf("expected Transit median 25000, got %f", medians["Transit"])
	}
	// Even count: midpoint of the two Sprinter prices.
	if math.Abs(medians["Sprinter"]-32475) > 1e-9 {
		t.Errorf("expected Sprinter median 32475, got %f", medians["Sprinter"])
	}
	if _, ok := medians["ProMaster"]; ok {
		t.Error("ProMaster had no priced rows and should not appear")
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"$24,500", 24500, false},
		{"41,200 mi", 41200, false},
		{"36", 36, false},
		{"1234.56", 1234.56, false},
		{"call for price", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parseMoney(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseMoney(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseMoney(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("parseMoney(%q) = %f, want %f", tc.in, got, tc.want)
		}
	}
}
