package token

// ACL es la access-control list embebida en un URL token: qué ítems
// puede leer quien porta el token.
type ACL struct {
	Rules []ACLRule `json:"rules"`
}

// ACLRule otorga un rol sobre un conjunto de ítems.
type ACLRule struct {
	ResourceIDs []string `json:"resourceIds"`
	Role        string   `json:"role"`
}

// ACLFromItemIDs arma la ACL de lectura típica de los shares por URL.
func ACLFromItemIDs(itemIDs ...string) ACL {
	return ACL{Rules: []ACLRule{{ResourceIDs: itemIDs, Role: "READER"}}}
}
