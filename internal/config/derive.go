package config

import (
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/plume/scope"
)

// databases maps every supported database to its family.
var databases = map[string]string{
	"none":       "no",
	"postgresql": "sql",
	"mysql":      "sql",
	"mariadb":    "sql",
	"mssql":      "sql",
	"oracle":     "sql",
	"h2":         "sql",
	"mongodb":    "mongodb",
	"cassandra":  "cassandra",
	"couchbase":  "couchbase",
	"neo4j":      "neo4j",
}

var databaseFamilies = []string{"sql", "mongodb", "cassandra", "couchbase", "neo4j", "no"}

var cacheProviders = []string{"none", "ehcache", "caffeine", "hazelcast", "infinispan", "memcached", "redis"}

// DatabaseNames lists the accepted database values.
func DatabaseNames() []string {
	names := make([]string, 0, len(databases))
	for name := range databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Derive expands the database and cache settings into boolean flags so
// templates can test them without string comparisons. Every flag of both
// enumerations is present; exactly one per family is true.
//
//	database: postgresql  ->  databaseType "sql", databaseTypeSql, sqlDatabase,
//	                          databasePostgresql, databaseTypeAny
//	cache:    redis       ->  cacheProvider "redis", cacheProviderRedis,
//	                          cacheProviderAny
func Derive(c *Config) scope.Context {
	ctx := scope.Context{}

	db := strings.ToLower(c.Database)
	family, ok := databases[db]
	if !ok {
		family = "no"
	}
	ctx["database"] = db
	ctx["databaseType"] = family
	for _, f := range databaseFamilies {
		ctx["databaseType"+upperFirst(f)] = f == family
	}
	for name := range databases {
		if name == "none" {
			continue
		}
		ctx["database"+upperFirst(name)] = name == db
	}
	ctx["databaseTypeAny"] = family != "no"
	ctx["sqlDatabase"] = family == "sql"

	cache := strings.ToLower(c.Cache)
	if cache == "" {
		cache = "none"
	}
	ctx["cacheProvider"] = cache
	for _, p := range cacheProviders {
		ctx["cacheProvider"+upperFirst(p)] = p == cache
	}
	ctx["cacheProviderAny"] = cache != "none"

	return ctx
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
