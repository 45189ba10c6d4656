package mcpserver

// ManifestFormat describes the task manifest that declares which files each
// task property observes.
const ManifestFormat = `# filesnap Manifest Format

Tasks and their file properties are declared in a YAML manifest.

` + "```" + `yaml
tasks:
  - name: compile                   # REQUIRED, unique
    properties:
      - name: sources               # REQUIRED, unique within the task
        roots: [src, gen/api.go]    # files or directories; relative to the workspace
        exclude: ["**/*.tmp"]       # OPTIONAL doublestar patterns
      - name: outputs
        roots: [build/classes]
` + "```" + `

## Rules

1. Names may contain letters, digits, ` + "`.`" + `, ` + "`_`" + `, ` + "`:`" + ` and ` + "`-`" + `.
2. Relative roots are resolved against the workspace root; ` + "`${VAR}`" + ` is expanded.
3. A root that does not exist is recorded as absent. Creating it later changes the
   property, and so does deleting it again.
4. A property with no roots is empty, which is different from a property whose roots
   are all absent.
5. Exclude patterns are matched against the slash-separated path relative to each root.
   A pattern matching a directory excludes everything beneath it.
6. A root nested in another root of the same property is folded into it. If an exclude
   pattern hid it, the nested root is added back into the tree.
7. Roots nested beneath a file root cannot be resolved and fail the snapshot.

## States reported by task_status

| State | Meaning |
|---|---|
| unchanged | fingerprint equals the recorded baseline |
| changed | fingerprint differs from the recorded baseline |
| added | property has no recorded fingerprint |
| removed | baseline has a fingerprint for a property no longer declared |

A task is up to date only when a baseline exists and every property is unchanged.
`
