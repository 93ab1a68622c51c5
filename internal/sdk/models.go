package sdk

import "strings"

// Category groups candidates in listings.
type Category string

const (
	CategoryLanguages  Category = "LANGUAGES"
	CategoryBuildTools Category = "BUILD_TOOLS"
	CategoryFrameworks Category = "FRAMEWORKS"
	CategoryServers    Category = "SERVERS"
	CategoryMQ         Category = "MQ"
	CategoryTools      Category = "TOOLS"
	CategoryOther      Category = "OTHER"
)

// Candidate is one package family offered by the catalog (java, maven, ...).
type Candidate struct {
	ID            string   `json:"candidate"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Website       string   `json:"website,omitempty"`
	LatestVersion string   `json:"latest_version,omitempty"`
	Category      Category `json:"category"`
}

// JDKCategory tags java distributions.
type JDKCategory string

const (
	JDKPlain  JDKCategory = "JDK"
	JDKJavaFX JDKCategory = "JAVAFX"
	JDKNative JDKCategory = "NIK"
)

// Version is one installable version of a candidate.
type Version struct {
	Candidate  string        `json:"candidate"`
	Version    string        `json:"version"`
	Identifier string        `json:"identifier"`
	Vendor     string        `json:"vendor,omitempty"`
	Categories []JDKCategory `json:"categories,omitempty"`
	Installed  bool          `json:"installed"`
	InUse      bool          `json:"in_use"`
	IsDefault  bool          `json:"is_default"`
}

// Key returns the operation key for this version. The identifier is what
// the installer and the local tree use, so it wins over the display version.
func (v Version) Key() Key {
	id := v.Identifier
	if id == "" {
		id = v.Version
	}
	return NewKey(v.Candidate, id)
}

// Statistics aggregates catalog and local install counts.
type Statistics struct {
	JDKInstalled int `json:"jdk_installed"`
	JDKAvailable int `json:"jdk_available"`
	SDKInstalled int `json:"sdk_installed"`
	SDKAvailable int `json:"sdk_available"`
}

// JDKCategoriesFor derives the categories of a java identifier such as
// "21.0.9.fx-librca" or "25.0.1-nik". A JDK may carry several.
func JDKCategoriesFor(identifier string) []JDKCategory {
	lower := strings.ToLower(identifier)

	var cats []JDKCategory
	if strings.Contains(lower, ".fx") {
		cats = append(cats, JDKJavaFX)
	}
	if strings.Contains(lower, "-nik") {
		cats = append(cats, JDKNative)
	}
	if len(cats) == 0 {
		cats = append(cats, JDKPlain)
	}
	return cats
}

var categoryByID = map[Category][]string{
	CategoryLanguages:  {"java", "kotlin", "scala", "groovy", "clojure", "jruby", "jython", "ceylon", "ballerina", "crash", "sbl"},
	CategoryBuildTools: {"maven", "mvnd", "gradle", "sbt", "ant", "bld"},
	CategoryFrameworks: {"springboot", "micronaut", "quarkus", "vertx"},
	CategoryServers:    {"tomcat", "jetty", "payara", "wildfly", "tomee", "liberty", "glowroot", "tackle", "akka"},
	CategoryMQ:         {"activemq", "kcctl"},
	CategoryTools: {"visualvm", "jmc", "jmeter", "gatling", "selenide", "cucumber", "testng", "mockito",
		"asciidoctorj", "jbang", "lombok", "cdi", "jakartaee", "leiningen", "helidon", "apache",
		"zookeeper", "consul", "etcd", "redis"},
}

// categoryOrder fixes lookup order; map iteration is random.
var categoryOrder = []Category{
	CategoryLanguages, CategoryBuildTools, CategoryFrameworks,
	CategoryServers, CategoryMQ, CategoryTools,
}

var categoryByDescription = []struct {
	category Category
	words    []string
}{
	{CategoryLanguages, []string{"programming language", "jvm language", "language", "compiler"}},
	{CategoryBuildTools, []string{"build tool", "build automation", "project management"}},
	{CategoryFrameworks, []string{"framework", "microframework"}},
	{CategoryServers, []string{"server", "servlet container"}},
	{CategoryTools, []string{"tool", "utility", "monitoring", "testing", "debugging", "documentation"}},
}

var categoryByNamePart = []struct {
	category Category
	parts    []string
}{
	{CategoryLanguages, []string{"lang"}},
	{CategoryBuildTools, []string{"build", "gradle", "maven", "ant"}},
	{CategoryFrameworks, []string{"framework", "spring", "micro", "quarkus"}},
	{CategoryServers, []string{"server", "tomcat", "jetty", "wildfly"}},
}

// CategoryFor classifies a candidate by its id, then its description, then
// fragments of its id.
func CategoryFor(id, description string) Category {
	id = strings.ToLower(id)
	for _, c := range categoryOrder {
		for _, known := range categoryByID[c] {
			if id == known {
				return c
			}
		}
	}

	desc := strings.ToLower(description)
	for _, rule := range categoryByDescription {
		for _, w := range rule.words {
			if strings.Contains(desc, w) {
				return rule.category
			}
		}
	}

	for _, rule := range categoryByNamePart {
		for _, p := range rule.parts {
			if strings.Contains(id, p) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
