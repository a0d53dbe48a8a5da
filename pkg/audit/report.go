package audit

// Vulnerability is one finding reported for a package.
type Vulnerability struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	CVSSScore   float64 `json:"cvss_score"`
	CVSSVector  string  `json:"cvss_vector,omitempty"`
	CVE         string  `json:"cve,omitempty"`
	CWE         string  `json:"cwe,omitempty"`
	Reference   string  `json:"reference,omitempty"`
}

// Report is the audit result of one package. Parent is filled in by
// [Collector.Run] for packages reached transitively and names the root whose
// resolution first introduced the package.
type Report struct {
	Identity        Identity        `json:"identity"`
	Reference       string          `json:"reference,omitempty"`
	Description     string          `json:"description,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Parent          *Identity       `json:"parent,omitempty"`
}

// Vulnerable reports whether any vulnerability was found.
func (r *Report) Vulnerable() bool { return len(r.Vulnerabilities) > 0 }

// MaxCVSS returns the highest CVSS score among the findings, or 0.
func (r *Report) MaxCVSS() float64 {
	var m float64
	for _, v := range r.Vulnerabilities {
		m = max(m, v.CVSSScore)
	}
	return m
}

// CountVulnerable returns how many reports carry at least one finding.
func CountVulnerable(reports []*Report) int {
	n := 0
	for _, r := range reports {
		if r.Vulnerable() {
			n++
		}
	}
	return n
}
