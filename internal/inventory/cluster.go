package inventory

// ClusterDescriptor is the identity and static facts for a cluster, as
// produced by the Lieutenant collaborator (spec.md §3 "Cluster Descriptor").
type ClusterDescriptor struct {
	ClusterID     string
	TenantID      string
	DisplayName   string
	TenantDisplay string
	CatalogURL    string

	// Facts are mandatory (cloud, distribution) and conditional (region).
	Facts map[string]string

	// DynamicFacts holds free-form additional facts.
	DynamicFacts map[string]interface{}

	GlobalGitRepoURL      string
	GlobalGitRepoRevision string
	TenantGitRepoURL      string
	TenantGitRepoRevision string
}

// ClusterClass builds the reserved "params.cluster" class from a
// ClusterDescriptor, injected at the lowest hierarchy precedence
// (spec.md §4.2 "Commodore injects a reserved params.cluster class").
func ClusterClass(cd *ClusterDescriptor) *Class {
	facts := NewOrderedMap()
	for k, v := range cd.Facts {
		facts.Set(k, StringValue(v))
	}

	cluster := NewOrderedMap()
	cluster.Set("name", StringValue(cd.ClusterID))
	cluster.Set("tenant", StringValue(cd.TenantID))
	cluster.Set("display_name", StringValue(cd.DisplayName))
	cluster.Set("catalog_url", StringValue(cd.CatalogURL))
	cluster.Set("facts", MapValue(facts))

	if len(cd.DynamicFacts) > 0 {
		dyn := NewOrderedMap()
		for k, v := range cd.DynamicFacts {
			dyn.Set(k, toValue(v))
		}
		cluster.Set("dynamic_facts", MapValue(dyn))
	}

	params := NewOrderedMap()
	params.Set("cluster", MapValue(cluster))

	return &Class{
		Name:   "params.cluster",
		Params: MapValue(params),
	}
}

func toValue(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(t)
	case string:
		return StringValue(t)
	case int:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case float64:
		return FloatValue(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = toValue(e)
		}
		return ListValue(out)
	case map[string]interface{}:
		m := NewOrderedMap()
		for k, e := range t {
			m.Set(k, toValue(e))
		}
		return MapValue(m)
	default:
		return NullValue()
	}
}
