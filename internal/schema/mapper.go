package schema

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleType       Role = "type"
	RoleAmount     Role = "amount"
	RoleMethod     Role = "method"
	RoleStatus     Role = "status"
	RoleTimestamp  Role = "timestamp"
	RoleID         Role = "id"
	RoleReceiver   Role = "receiver"
	RoleUsername   Role = "username"
	RolePriority   Role = "priority"
	RoleVerifiedBy Role = "verified_by"
	RoleVerifiedAt Role = "verified_at"
)

// Roles in tie-break order.
var Roles = []Role{
	RoleID, RoleType, RoleAmount, RoleMethod, RoleStatus, RoleTimestamp,
	RoleReceiver, RoleUsername, RolePriority, RoleVerifiedBy, RoleVerifiedAt,
}

var keyRoles = []Role{RoleType, RoleAmount, RoleMethod, RoleStatus}

const headerScore = 3

var synonyms = map[Role]*regexp.Regexp{
	RoleType:       regexp.MustCompile(`(?i)^(payout[ _-]?)?type$|^kind$|^category$|^route$|payout[ _-]?type`),
	RoleAmount:     regexp.MustCompile(`(?i)amount|^sum$|total|^value$|usd|\$`),
	RoleMethod:     regexp.MustCompile(`(?i)method|rail|^app$|platform|payment[ _-]?app|^via$`),
	RoleStatus:     regexp.MustCompile(`(?i)status|^state$`),
	RoleTimestamp:  regexp.MustCompile(`(?i)timestamp|created|requested|submitted|^date$|^time$`),
	RoleID:         regexp.MustCompile(`(?i)^(request[ _-]?)?id$|request[ _-]?id|^ref|ticket`),
	RoleReceiver:   regexp.MustCompile(`(?i)tag|handle|address|wallet|receiver|destination|cashtag|e-?mail|phone`),
	RoleUsername:   regexp.MustCompile(`(?i)^user(name)?$|^name$|requester|member|display`),
	RolePriority:   regexp.MustCompile(`(?i)priority|fast|urgent|rush`),
	RoleVerifiedBy: regexp.MustCompile(`(?i)(verified|approved|confirmed)[ _-]?by`),
	RoleVerifiedAt: regexp.MustCompile(`(?i)(verified|approved|confirmed)[ _-]?(at|on|time|date)`),
}

var (
	knownStatuses = set("QUEUED", "LOGGED", "MATCHED", "STALE", "PAID", "CANCELLED", "PENDING", "DONE", "COMPLETED", "APPROVED")
	knownTypes    = set("CIRCLE", "OWNER")
	knownRails    = set("ZELLE", "VENMO", "CASHAPP", "PAYPAL", "CHIME", "APPLEPAY", "BTC", "ETH", "USDT", "USDC", "LTC", "CRYPTO")
	priorityFlags = set("FAST", "YES", "TRUE", "1", "PRIORITY", "Y")
	dateLayouts   = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "01/02/2006 15:04:05", "1/2/2006 15:04:05", "01/02/2006", "1/2/2006"}
	walletPattern = regexp.MustCompile(`^[A-Za-z0-9]{26,}$`)
)

type Mapping struct {
	Columns    map[Role]int
	Confidence float64
}

func (m Mapping) Index(role Role) (int, bool) {
	idx, ok := m.Columns[role]
	return idx, ok
}

type score struct {
	col   int
	role  Role
	value int
}

// Infer guesses which column plays which role from header text and the
// shape of sample values. Column indexes in the result are zero-based.
func Infer(headers []string, sample [][]string) Mapping {
	var scores []score
	for col, header := range headers {
		values := columnValues(sample, col)
		for _, role := range Roles {
			v := 0
			if h := strings.TrimSpace(header); h != "" && synonyms[role].MatchString(h) {
				v += headerScore
			}
			v += profile(role, values)
			if v > 0 {
				scores = append(scores, score{col: col, role: role, value: v})
			}
		}
	}

	rank := make(map[Role]int, len(Roles))
	for i, r := range Roles {
		rank[r] = i
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].value != scores[j].value {
			return scores[i].value > scores[j].value
		}
		if rank[scores[i].role] != rank[scores[j].role] {
			return rank[scores[i].role] < rank[scores[j].role]
		}
		return scores[i].col < scores[j].col
	})

	m := Mapping{Columns: make(map[Role]int)}
	claimed := make(map[int]bool)
	for _, s := range scores {
		if _, done := m.Columns[s.role]; done || claimed[s.col] {
			continue
		}
		m.Columns[s.role] = s.col
		claimed[s.col] = true
	}

	resolved := 0
	for _, r := range keyRoles {
		if _, ok := m.Columns[r]; ok {
			resolved++
		}
	}
	m.Confidence = float64(resolved) / float64(len(keyRoles)) * 100
	return m
}

func columnValues(sample [][]string, col int) []string {
	var out []string
	for _, row := range sample {
		if col < len(row) {
			if v := strings.TrimSpace(row[col]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func profile(role Role, values []string) int {
	if len(values) == 0 {
		return 0
	}
	switch role {
	case RoleAmount:
		return weigh(values, isNumeric, 2)
	case RoleTimestamp:
		return weigh(values, isDate, 2)
	case RoleVerifiedAt:
		return weigh(values, isDate, 1)
	case RoleStatus:
		return weigh(values, in(knownStatuses), 2)
	case RoleType:
		return weigh(values, in(knownTypes), 2)
	case RoleMethod:
		return weigh(values, in(knownRails), 2)
	case RolePriority:
		return weigh(values, in(priorityFlags), 1)
	case RoleReceiver:
		return weigh(values, isReceiver, 2)
	case RoleID:
		if distinct(values) && !allMatch(values, isNumeric) && !allMatch(values, isDate) {
			return 1
		}
	}
	return 0
}

func weigh(values []string, pred func(string) bool, points int) int {
	hits := 0
	for _, v := range values {
		if pred(v) {
			hits++
		}
	}
	if hits*5 >= len(values)*4 {
		return points
	}
	return 0
}

func allMatch(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func distinct(values []string) bool {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return len(values) > 1
}

func isNumeric(v string) bool {
	v = strings.NewReplacer("$", "", ",", "").Replace(v)
	_, err := decimal.NewFromString(strings.TrimSpace(v))
	return err == nil
}

func isDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func isReceiver(v string) bool {
	if strings.HasPrefix(v, "$") && !isNumeric(v) {
		return true
	}
	return strings.Contains(v, "@") || walletPattern.MatchString(v)
}

func in(values map[string]bool) func(string) bool {
	return func(v string) bool {
		return values[strings.ToUpper(strings.TrimSpace(v))]
	}
}

func set(values ...string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}
