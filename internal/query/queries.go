// Package query implements component C of the workspace index: one
// declarative tree-sitter query per language dialect, composed of the
// named capture groups spec.md §4.C enumerates, plus a few extra
// capture names (unexported from the public table but present in the
// capture stream) that the scope resolver (component D) needs to
// decide which grammar shapes actually denote i18n calls. The
// patterns are structural only, no `#eq?`/`#match?` predicates,
// mirroring the teacher's setupJavaScript/setupTypeScript query
// strings in internal/parser/parser_language_setup.go: predicate
// filtering (is this callee really `useTranslation`, is this option
// key really `keyPrefix`) happens in Go against the captured text,
// the same way the teacher filters capture names by substring match
// rather than relying on tree-sitter predicates.
package query

// sharedI18nQuery captures the i18n call shapes common to JS, JSX, TS
// and TSX. The four dialects differ in how they parse type
// annotations and JSX tags, not in how they parse destructuring,
// call expressions or object literals, so one query string is
// compiled against each dialect's grammar.
const sharedI18nQuery = `
(variable_declarator
  name: (object_pattern
    (shorthand_property_identifier_pattern) @get_trans_fn_name)
  value: (call_expression
    function: (identifier) @hook_name
    arguments: (arguments
      .
      (string (string_fragment) @namespace)?
      .
      (array
        (string (string_fragment) @namespace_item)*)?
      .
      (object
        (pair
          key: (property_identifier) @option_key
          value: (string (string_fragment) @key_prefix)))?
      .)?)) @get_trans_fn

(variable_declarator
  name: (object_pattern
    (pair_pattern
      key: (property_identifier)
      value: (identifier) @get_trans_fn_name))
  value: (call_expression
    function: (identifier) @hook_name)) @get_trans_fn

(call_expression
  function: (identifier) @call_trans_fn_name
  arguments: (arguments
    .
    (string (string_fragment) @trans_key)?
    .
    (object
      (pair
        key: (property_identifier) @option_key
        value: (string (string_fragment) @explicit_namespace)))?
    .) @trans_args) @call_trans_fn

(call_expression
  function: (member_expression
    object: (identifier) @member_object
    property: (property_identifier) @member_property) @call_trans_fn_name
  arguments: (arguments
    .
    (string (string_fragment) @trans_key)?
    .
    (object
      (pair
        key: (property_identifier) @option_key
        value: (string (string_fragment) @explicit_namespace)))?
    .) @trans_args) @call_trans_fn

(jsx_self_closing_element
  name: (identifier) @jsx_tag_name
  (jsx_attribute
    name: (property_identifier) @jsx_attr_name
    value: (string (string_fragment) @trans_key))) @call_trans_fn

(jsx_opening_element
  name: (identifier) @jsx_tag_name
  (jsx_attribute
    name: (property_identifier) @jsx_attr_name
    value: (string (string_fragment) @key_prefix))) @get_trans_fn
`

// queryForDialect currently returns the same source for every
// LanguageKind; kept as a function (rather than a bare constant) so
// a dialect that eventually needs its own pattern (e.g. TSX-specific
// generic-vs-JSX disambiguation) can diverge without touching
// engine.go's call sites.
func queryForDialect() string {
	return sharedI18nQuery
}
