package clojure

import "fmt"

// supportNS is where the bootstrap form installs its helper functions.
const supportNS = "conjure.internal"

// bootstrapForm defines the helpers behind definition lookup and
// completion listing. Loaded once per eval channel, before any user code.
const bootstrapForm = `
(ns ` + supportNS + `)

(defn definition [named]
  (if-let [m (some-> named symbol resolve meta)]
    [(str (:file m)) (:line m 1) (:column m 1)]
    :unknown))

(defn completions [ns-name core-name]
  (->> [(symbol ns-name) (symbol core-name)]
       (mapcat (fn [n] (try (vals (ns-publics n)) (catch Exception _ nil))))
       (map (fn [v]
              (let [m (meta v)]
                {:candidate (str (:name m))
                 :type (if (:macro m) :macro (if (fn? @v) :function :var))
                 :ns (str (:ns m))})))
       (sort-by :candidate)
       (into [])))
`

// Bootstrap returns the support code loaded into the remote runtime when
// an eval channel starts.
func Bootstrap() string {
	return bootstrapForm
}

// Eval wraps code for evaluation inside ns.
func Eval(code, ns string, lang Lang) string {
	if lang == ClojureScript {
		// in-ns in ClojureScript fails on a namespace that does not
		// exist yet, so create it first.
		return fmt.Sprintf("(do (when-not (find-ns '%s) (ns %s)) (in-ns '%s) %s)", ns, ns, ns, code)
	}
	return fmt.Sprintf("(do (in-ns '%s) %s)", ns, code)
}

// Definition returns the form that resolves name to a [file line column]
// vector, or :unknown when the symbol has no source metadata.
func Definition(name string) string {
	return fmt.Sprintf("(%s/definition %q)", supportNS, name)
}

// Completions returns the form that lists candidate completions from ns
// and the core namespace.
func Completions(ns, coreNS string) string {
	return fmt.Sprintf("(%s/completions %q %q)", supportNS, ns, coreNS)
}
