// Package templates holds the boilerplate text written by store scaffolding.
// The chain engine treats all of it as opaque: none of these strings
// participate in hashing or verification.
package templates

// DirectiveMarker identifies an already-applied protocol directive. Appending
// to root agent files is skipped when the target contains this marker.
const DirectiveMarker = "Othala Protocol"

// Draft is the empty pending-work document. Commit resets draft.md to
// exactly this text.
const Draft = `<summary></summary>

## Intent
<!-- Why was this change made? What problem does it solve? -->

## Changes
<!-- List specific files and functions modified -->

## Verification
<!-- How did you test or validate this change? -->
`

// LedgerHeader is the initial content of worklog/SUMMARY.md. Commits append
// one table row per entry below it.
const LedgerHeader = `# Othala Worklog

| Entry | Summary |
|-------|--------|
`

// GitIgnore keeps the derived index cache out of version control. The chain
// files themselves are meant to be committed.
const GitIgnore = `# Derived index cache; rebuilt from worklog entries.
index.db
index.db-shm
index.db-wal
`

// GitAttributes protects persisted entries from line-ending normalization.
// Chain hashes are computed over exact bytes; a CRLF conversion would break
// every historical link.
const GitAttributes = `# Hashes cover exact bytes. Never normalize line endings here.
worklog/*.md -text
draft.md -text
`

// Agents is the full protocol document written to the store's AGENTS.md and
// served to MCP clients as the othala://protocol resource.
const Agents = `# Othala Protocol: Agent Instructions

This project uses Othala for persistent agent memory. Follow this protocol
for all work sessions.

## Before Starting Work

1. Read ` + "`" + `.othala/draft.md` + "`" + ` to check for unfinished work
2. If the draft contains work-in-progress, either:
   - Resume and complete that work, OR
   - Document why you are abandoning it and commit
3. Read ` + "`" + `.othala/worklog/SUMMARY.md` + "`" + ` to understand the recent worklog

## During Work

1. Work on your assigned task normally
2. Keep mental note of all changes for the report

## After Completing Work

1. Update ` + "`" + `.othala/draft.md` + "`" + ` with your work report:
   - Fill in the ` + "`" + `<summary>` + "`" + ` tag with ONE sentence describing the change
   - Document Intent: why the change was made
   - Document Changes: specific files and functions modified
   - Document Verification: how you tested/validated

2. Run ` + "`" + `othala commit` + "`" + ` to finalize the entry

## Rules

- **NEVER** modify files in ` + "`" + `.othala/worklog/` + "`" + ` directly
- **NEVER** leave ` + "`" + `draft.md` + "`" + ` empty after doing work
- **NEVER** manually calculate or enter hashes
- **ALWAYS** run ` + "`" + `othala commit` + "`" + ` to finalize work (the tool handles hashing)

## CRITICAL: Data Security

**NEVER log, record, or include sensitive data in ANY worklog documentation.**

This includes but is not limited to:
- Passwords, passphrases, or authentication credentials
- API keys, tokens, or secrets
- Private keys, certificates, or encryption keys
- Database connection strings with credentials
- Environment variables containing secrets
- Personal identifying information (PII)
- Any data marked as confidential or sensitive

**This applies to:**
- The ` + "`" + `<summary>` + "`" + ` tag
- Intent, Changes, and Verification sections in ` + "`" + `draft.md` + "`" + `
- Any content that will be committed to the worklog

**Instead:**
- Reference secrets by name only (e.g., "Updated the DATABASE_PASSWORD environment variable")
- Describe changes generically (e.g., "Rotated API credentials for payment service")
- Use placeholders in examples (e.g., ` + "`" + `API_KEY=<redacted>` + "`" + `)

**Violation of this policy creates permanent security vulnerabilities in the
repository worklog.**

## Verifying Worklog Integrity

Run ` + "`" + `othala verify` + "`" + ` to validate the hash chain integrity at any time.

## Understanding the Hash Chain

Each worklog entry contains the SHA-256 hash of the previous entry's content.
This creates a tamper-evident chain:
- If any historical entry is modified, its hash changes
- This breaks the link from the next entry
- ` + "`" + `othala verify` + "`" + ` detects this immediately

The hash in the filename is the hash of that file's own content, providing a
quick integrity check.
`

// RootDirective is the block appended to root-level agent instruction files
// (WARP.md, AGENTS.md, .junie/guidelines.md). It must contain
// DirectiveMarker so repeated init runs stay idempotent.
const RootDirective = `## Othala Protocol (MANDATORY)

This project uses Othala for agent memory. You MUST follow this workflow:

### Before Starting Work
1. Run ` + "`" + `cat .othala/draft.md` + "`" + ` to check for unfinished work
2. If the draft exists with content, resume that task OR document why you're abandoning it

### After Completing ANY Task
1. Update ` + "`" + `.othala/draft.md` + "`" + ` with your work report:
   - ` + "`" + `<summary>` + "`" + ` tag: ONE sentence describing the change
   - Intent section: why this change was made
   - Changes section: files and functions modified
   - Verification section: how you tested it
2. Run ` + "`" + `othala commit` + "`" + ` to finalize

### Rules
- NEVER modify files in ` + "`" + `.othala/worklog/` + "`" + `
- NEVER leave ` + "`" + `draft.md` + "`" + ` empty after doing work
- If uncertain, read ` + "`" + `.othala/AGENTS.md` + "`" + ` for the full protocol

### CRITICAL: Data Security
**NEVER log sensitive data** (passwords, API keys, secrets, tokens,
credentials, PII) in any worklog documentation. Reference secrets by name
only, never include actual values. See ` + "`" + `.othala/AGENTS.md` + "`" + ` for the full
security policy.

`
