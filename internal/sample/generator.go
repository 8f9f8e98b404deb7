// Package sample generates synthetic group enrollment records.
package sample

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jmehdipour/group-load/internal/model"
)

const dateLayout = "2006-01-02"

var (
	groupTypes     = []string{"corporate", "individual", "family", "small_business"}
	memberStatuses = []string{"active", "inactive", "pending", "terminated"}
	planTypes      = []string{"HMO", "PPO", "EPO", "POS"}
	coverageLevels = []string{"individual", "family", "employee_plus_spouse"}
	industries     = []string{"Technology", "Healthcare", "Finance", "Manufacturing", "Retail"}

	firstNames = []string{"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
		"David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah"}
	lastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Taylor", "Moore"}
	companies = []string{"Northwind", "Globex", "Initech", "Umbrella", "Hooli", "Stark", "Wayne", "Soylent",
		"Cyberdyne", "Tyrell", "Vandelay", "Wonka"}
	streets = []string{"Main St", "Oak Ave", "Pine Rd", "Maple Dr", "Cedar Ln", "Elm St", "Lake Blvd"}
	cities  = []struct{ city, state string }{
		{"New York", "NY"}, {"Austin", "TX"}, {"Denver", "CO"}, {"Seattle", "WA"},
		{"Chicago", "IL"}, {"Boston", "MA"}, {"Atlanta", "GA"}, {"Phoenix", "AZ"},
	}
	mailDomains = []string{"example.com", "example.org", "mail.test"}
)

// Generator builds random groups. It is not safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator returns a generator; the same seed yields the same records
// for a fixed clock.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (g *Generator) pick(s []string) string { return s[g.rnd.IntN(len(s))] }

func (g *Generator) between(lo, hi int) int { return lo + g.rnd.IntN(hi-lo+1) }

// daysAgo returns a date within the last n days.
func (g *Generator) daysAgo(n int) time.Time {
	return g.now().AddDate(0, 0, -g.rnd.IntN(n+1)).Truncate(24 * time.Hour)
}

func (g *Generator) birthDate(minAge, maxAge int) string {
	age := g.between(minAge, maxAge)
	return g.now().AddDate(-age, 0, -g.rnd.IntN(365)).Format(dateLayout)
}

func (g *Generator) phone() string {
	return fmt.Sprintf("+1-%03d-%03d-%04d", g.between(200, 989), g.between(200, 999), g.rnd.IntN(10000))
}

func (g *Generator) address() map[string]string {
	c := cities[g.rnd.IntN(len(cities))]
	return map[string]string{
		"street":   fmt.Sprintf("%d %s", g.between(1, 9999), g.pick(streets)),
		"city":     c.city,
		"state":    c.state,
		"zip_code": fmt.Sprintf("%05d", g.between(1001, 99950)),
		"country":  "USA",
	}
}

func (g *Generator) money(lo, hi float64) float64 {
	return math.Round((lo+g.rnd.Float64()*(hi-lo))*100) / 100
}

// Member builds one random member of groupID.
func (g *Generator) Member(groupID string) model.GroupMember {
	first, last := g.pick(firstNames), g.pick(lastNames)
	return model.GroupMember{
		MemberID:       fmt.Sprintf("%s_M%d", groupID, g.between(1000, 9999)),
		FirstName:      first,
		LastName:       last,
		Email:          strings.ToLower(first+"."+last) + "@" + g.pick(mailDomains),
		Phone:          model.StrPtr(g.phone()),
		DateOfBirth:    model.StrPtr(g.birthDate(18, 80)),
		Address:        g.address(),
		EnrollmentDate: model.StrPtr(g.daysAgo(730).Format(dateLayout)),
		Status:         g.pick(memberStatuses),
	}
}

// Group builds a random group with 1-50 members. An empty groupID is generated.
func (g *Generator) Group(groupID string) model.GroupDetails {
	if groupID == "" {
		groupID = fmt.Sprintf("GRP_%d", g.between(10000, 99999))
	}

	n := g.between(1, 50)
	members := make([]model.GroupMember, 0, n)
	for i := 0; i < n; i++ {
		members = append(members, g.Member(groupID))
	}

	effective := g.daysAgo(365)
	status := model.DefaultStatus
	var termination *string
	if g.rnd.Float64() < 0.1 {
		span := int(g.now().Sub(effective).Hours() / 24)
		termination = model.StrPtr(effective.AddDate(0, 0, g.rnd.IntN(span+1)).Format(dateLayout))
		status = "terminated"
	}

	now := g.now()
	return model.GroupDetails{
		GroupID:         groupID,
		GroupName:       g.pick(companies) + " Group Plan",
		GroupType:       g.pick(groupTypes),
		EffectiveDate:   effective.Format(dateLayout),
		TerminationDate: termination,
		Status:          status,
		Members:         members,
		CreatedAt:       now,
		UpdatedAt:       now,
		Metadata: map[string]any{
			"plan_type":         g.pick(planTypes),
			"coverage_level":    g.pick(coverageLevels),
			"premium_amount":    g.money(200, 2000),
			"deductible":        g.between(500, 5000),
			"max_out_of_pocket": g.between(1000, 10000),
		},
	}
}

// Batch builds count random groups.
func (g *Generator) Batch(count int) []model.GroupDetails {
	out := make([]model.GroupDetails, 0, max(count, 0))
	for i := 0; i < count; i++ {
		out = append(out, g.Group(""))
	}
	return out
}

// Corporate builds an active corporate group with sequential employee ids.
func (g *Generator) Corporate(company string, employees int) model.GroupDetails {
	slug := strings.ReplaceAll(strings.ToUpper(company), " ", "_")
	groupID := fmt.Sprintf("CORP_%s_%d", slug, g.between(1000, 9999))
	domain := strings.ReplaceAll(strings.ToLower(company), " ", "") + ".com"

	members := make([]model.GroupMember, 0, max(employees, 0))
	for i := 0; i < employees; i++ {
		first, last := g.pick(firstNames), g.pick(lastNames)
		members = append(members, model.GroupMember{
			MemberID:       fmt.Sprintf("%s_EMP%04d", groupID, i+1),
			FirstName:      first,
			LastName:       last,
			Email:          strings.ToLower(first+"."+last) + "@" + domain,
			Phone:          model.StrPtr(g.phone()),
			DateOfBirth:    model.StrPtr(g.birthDate(22, 65)),
			Address:        g.address(),
			EnrollmentDate: model.StrPtr(g.daysAgo(365).Format(dateLayout)),
			Status:         model.DefaultStatus,
		})
	}

	now := g.now()
	return model.GroupDetails{
		GroupID:       groupID,
		GroupName:     company + " Employee Health Plan",
		GroupType:     "corporate",
		EffectiveDate: g.daysAgo(365).Format(dateLayout),
		Status:        model.DefaultStatus,
		Members:       members,
		CreatedAt:     now,
		UpdatedAt:     now,
		Metadata: map[string]any{
			"plan_type":         "PPO",
			"coverage_level":    "employee_plus_family",
			"premium_amount":    g.money(800, 1500),
			"deductible":        g.between(1000, 3000),
			"max_out_of_pocket": g.between(2000, 8000),
			"company_size":      employees,
			"industry":          g.pick(industries),
		},
	}
}
