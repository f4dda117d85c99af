package loganalysis

import "strings"

// Signature categories.
const (
	CategoryDocker   = "docker"
	CategoryCode     = "code"
	CategoryNode     = "node"
	CategoryService  = "service"
	CategoryDatabase = "database"
)

// Signature pairs a literal log fragment with the remediation it suggests.
type Signature struct {
	Pattern  string
	Fix      string
	Category string
}

// Finding reports one signature that matched a log.
type Finding struct {
	Pattern  string `json:"pattern" yaml:"pattern"`
	Fix      string `json:"fix" yaml:"fix"`
	Category string `json:"category" yaml:"category"`
}

var signatureTable = []Signature{
	{Pattern: "ENOSPC", Fix: "Docker disk space full. Run: docker system prune -a", Category: CategoryDocker},
	{Pattern: "no space left on device", Fix: "Disk space issue. Clean up Docker or increase disk allocation.", Category: CategoryDocker},
	{Pattern: "CS0234", Fix: "Missing namespace. Add using directive or check project references.", Category: CategoryCode},
	{Pattern: "error CS", Fix: "C# compilation error. Check syntax, types, and dependencies.", Category: CategoryCode},
	{Pattern: "npm ERR", Fix: "npm install failed. Check package.json and network connectivity.", Category: CategoryNode},
	{Pattern: "Cannot find module", Fix: "Missing dependency. Run npm install or check import paths.", Category: CategoryNode},
	{Pattern: "lstat", Fix: "Docker COPY path error. Check Dockerfile context and file paths.", Category: CategoryDocker},
	{Pattern: "permission denied", Fix: "File permission issue. Check file permissions or use USER instruction.", Category: CategoryDocker},
	{Pattern: "Health check", Fix: "Service health check failed. Check service logs and dependencies.", Category: CategoryService},
	{Pattern: "database is locked", Fix: "Database connection issue. Check for multiple instances or long transactions.", Category: CategoryDatabase},
}

// Signatures returns a copy of the signature table in match order.
func Signatures() []Signature {
	signatures := make([]Signature, len(signatureTable))
	copy(signatures, signatureTable)
	return signatures
}

// Analyze reports every signature whose pattern occurs in logText.
// Matching is case-sensitive and overlapping signatures are all reported.
func Analyze(logText string) []Finding {
	findings := []Finding{}
	if len(logText) == 0 {
		return findings
	}
	for _, signature := range signatureTable {
		if strings.Contains(logText, signature.Pattern) {
			findings = append(findings, Finding{Pattern: signature.Pattern, Fix: signature.Fix, Category: signature.Category})
		}
	}
	return findings
}
