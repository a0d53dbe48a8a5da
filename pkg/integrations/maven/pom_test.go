package maven

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestParsePOM(t *testing.T) {
	p, err := ParsePOM([]byte(childPOM))
	if err != nil {
		t.Fatal(err)
	}
	if p.Coordinate() != "org.example:mylib:1.0.0" {
		t.Errorf("Coordinate() = %q", p.Coordinate())
	}
	if p.Properties["guava.version"] != "31.0-jre" {
		t.Errorf("properties = %v", p.Properties)
	}
	if p.Dependencies[0].IsOptional() {
		t.Error("guava should not be optional")
	}

	if _, err := ParsePOM([]byte("<project><groupId>g</groupId></project>")); err == nil {
		t.Error("POM without artifactId should fail")
	}
	if _, err := ParsePOM([]byte("not xml")); err == nil {
		t.Error("garbage should fail")
	}
}

func TestInterpolate(t *testing.T) {
	props := Properties{
		"a":      "1",
		"b":      "${a}.2",
		"loop":   "${loop}",
		"nested": "${b}.3",
	}

	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"${a}", "1"},
		{"${nested}", "1.2.3"},
		{"v${a}-${b}", "v1-1.2"},
		{"${missing}", "${missing}"},
		{"${loop}", "${loop}"},
	}
	for _, tt := range tests {
		if got := Interpolate(tt.in, props); got != tt.want {
			t.Errorf("Interpolate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func mapFetcher(poms map[string]string) Fetcher {
	return func(_ context.Context, g, a, v string) (*POM, error) {
		data, ok := poms[g+":"+a+":"+v]
		if !ok {
			return nil, fmt.Errorf("no pom %s:%s:%s", g, a, v)
		}
		return ParsePOM([]byte(data))
	}
}

func TestEffective_BOMImport(t *testing.T) {
	bom := `<project><groupId>org.bom</groupId><artifactId>bom</artifactId><version>1</version>
  <dependencyManagement><dependencies>
    <dependency><groupId>org.lib</groupId><artifactId>a</artifactId><version>3.0</version></dependency>
    <dependency><groupId>org.lib</groupId><artifactId>b</artifactId><version>4.0</version></dependency>
  </dependencies></dependencyManagement></project>`
	app := `<project><groupId>org.app</groupId><artifactId>app</artifactId><version>1</version>
  <dependencyManagement><dependencies>
    <dependency><groupId>org.bom</groupId><artifactId>bom</artifactId><version>1</version><type>pom</type><scope>import</scope></dependency>
    <dependency><groupId>org.lib</groupId><artifactId>b</artifactId><version>5.0</version></dependency>
  </dependencies></dependencyManagement>
  <dependencies>
    <dependency><groupId>org.lib</groupId><artifactId>a</artifactId></dependency>
    <dependency><groupId>org.lib</groupId><artifactId>b</artifactId></dependency>
  </dependencies></project>`

	p, _ := ParsePOM([]byte(app))
	eff, err := Effective(context.Background(), p, mapFetcher(map[string]string{"org.bom:bom:1": bom}))
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, d := range eff.Dependencies {
		got[d.Key()] = d.Version
	}
	if got["org.lib:a"] != "3.0" {
		t.Errorf("a = %q, want imported 3.0", got["org.lib:a"])
	}
	if got["org.lib:b"] != "5.0" {
		t.Errorf("b = %q, want local management 5.0 to win over BOM", got["org.lib:b"])
	}
	for _, d := range eff.DependencyManagement {
		if d.Scope == "import" {
			t.Errorf("import entry %s left in management", d.Key())
		}
	}
}

func TestEffective_ParentFailure(t *testing.T) {
	p, _ := ParsePOM([]byte(childPOM))
	_, err := Effective(context.Background(), p, mapFetcher(nil))
	if err == nil {
		t.Fatal("missing parent should fail")
	}
}

func TestEffective_ParentCycleBounded(t *testing.T) {
	self := `<project><parent><groupId>g</groupId><artifactId>a</artifactId><version>1</version></parent>
  <groupId>g</groupId><artifactId>a</artifactId><version>1</version></project>`
	p, _ := ParsePOM([]byte(self))
	_, err := Effective(context.Background(), p, mapFetcher(map[string]string{"g:a:1": self}))
	if err == nil {
		t.Fatal("self-parented POM should fail")
	}
}

func TestEffective_NilFetcherSkipsParent(t *testing.T) {
	p, _ := ParsePOM([]byte(childPOM))
	eff, err := Effective(context.Background(), p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if eff.GroupID != "org.example" {
		t.Errorf("groupId should come from the parent declaration, got %q", eff.GroupID)
	}
	if eff.Dependencies[1].Version != "" {
		t.Errorf("slf4j version = %q, want empty without parent management", eff.Dependencies[1].Version)
	}
}

func TestEffective_ChildDependencyWins(t *testing.T) {
	parent := `<project><groupId>g</groupId><artifactId>parent</artifactId><version>1</version>
  <dependencies><dependency><groupId>x</groupId><artifactId>y</artifactId><version>1.0</version></dependency></dependencies></project>`
	child := `<project><parent><groupId>g</groupId><artifactId>parent</artifactId><version>1</version></parent>
  <artifactId>child</artifactId>
  <dependencies><dependency><groupId>x</groupId><artifactId>y</artifactId><version>2.0</version></dependency></dependencies></project>`

	p, _ := ParsePOM([]byte(child))
	eff, err := Effective(context.Background(), p, mapFetcher(map[string]string{"g:parent:1": parent}))
	if err != nil {
		t.Fatal(err)
	}
	if len(eff.Dependencies) != 1 || eff.Dependencies[0].Version != "2.0" {
		t.Errorf("dependencies = %+v, want child x:y:2.0 only", eff.Dependencies)
	}
}

func TestEffective_ErrorWrapsCause(t *testing.T) {
	sentinel := errors.New("boom")
	p, _ := ParsePOM([]byte(childPOM))
	_, err := Effective(context.Background(), p, func(context.Context, string, string, string) (*POM, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want wrapped sentinel", err)
	}
}
