// Copyright 2020 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"bufio"
	"io"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/intel/libcgroup/pkg/log"
)

var parserLog = log.NewLogger("rules")

// maxRuleLine bounds the length of a single rules-file line; longer
// lines are discarded.
const maxRuleLine = 4096

// Load performs a cache-mode parse of path, replacing Cached wholesale.
func Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head, err := parse(f, true, invalidID, invalidID)
	if err != nil {
		return err
	}
	Cached.replace(head)
	return nil
}

// Match performs a match-mode parse of path, returning the transient
// chain (the first rule whose principal matches (uid, gid), plus its
// continuations), or nil if nothing matched.
func Match(path string, uid, gid int) (*Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parse(f, false, uid, gid)
}

// parse implements both parsing modes described in the rules-file
// format: cache mode parses every line into a replacement list; match
// mode stops as soon as it has collected a matching rule and its
// continuations.
func parse(r io.Reader, cache bool, matchUID, matchGID int) (*Rule, error) {
	s := bufio.NewScanner(r)

	var head, tail *Rule
	matched := false
	skippedInvalid := false
	var lastPrincipal Principal
	linenum := 0

	push := func(rule *Rule) {
		if head == nil {
			head = rule
			tail = rule
			return
		}
		tail.Next = rule
		tail = rule
	}

	for s.Scan() {
		linenum++
		line := s.Text()
		if len(line) > maxRuleLine {
			parserLog.Warn("rules line %d exceeds maximum length, discarding", linenum)
			continue
		}

		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		isContinuation := strings.HasPrefix(line, "%")

		if skippedInvalid && isContinuation {
			parserLog.Warn("skipping continuation of invalid rule at line %d", linenum)
			continue
		}
		skippedInvalid = false

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, newParseError(linenum)
		}
		userField, controllersField, destination := fields[0], fields[1], fields[2]

		if !cache && matched && !isContinuation {
			break
		}

		var principal Principal
		if isContinuation {
			principal = lastPrincipal
		} else {
			p, ok := resolvePrincipal(userField)
			if !ok {
				parserLog.Warn("skipping rule with unresolvable principal %q at line %d", userField, linenum)
				skippedInvalid = true
				continue
			}
			principal = p
			lastPrincipal = p
		}

		if !cache {
			if matchesWithGroups(principal, matchUID, matchGID) {
				matched = true
			}
			if !matched {
				continue
			}
		}

		controllers := splitControllers(controllersField)
		if len(controllers) == 0 {
			return nil, newParseError(linenum)
		}

		push(&Rule{
			Principal:    principal,
			Controllers:  controllers,
			Destination:  destination,
			Continuation: isContinuation,
		})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return head, nil
}

func splitControllers(field string) []string {
	parts := strings.Split(field, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolvePrincipal parses a rule's principal field: "*" (wildcard),
// "@groupname" (GID rule), "%..." (continuation marker, never reached
// here directly) or a plain username.
func resolvePrincipal(field string) (Principal, bool) {
	switch {
	case field == WildcardAll:
		return Principal{UID: invalidID, GID: invalidID, Wildcard: true, RawName: field}, true
	case strings.HasPrefix(field, "@"):
		name := field[1:]
		g, err := user.LookupGroup(name)
		if err != nil {
			return Principal{}, false
		}
		gid, err := strconv.Atoi(g.Gid)
		if err != nil {
			return Principal{}, false
		}
		return Principal{UID: invalidID, GID: gid, RawName: field}, true
	default:
		u, err := user.Lookup(field)
		if err != nil {
			return Principal{}, false
		}
		uid, err := strconv.Atoi(u.Uid)
		if err != nil {
			return Principal{}, false
		}
		return Principal{UID: uid, GID: invalidID, RawName: field}, true
	}
}

// matchesWithGroups extends Principal.Matches with the supplementary
// group-membership check for "@group" rules: it resolves matchUID's
// full group-id set (primary and supplementary) and checks whether the
// rule's GID is among them.
func matchesWithGroups(p Principal, uid, gid int) bool {
	if p.Matches(uid, gid) {
		return true
	}
	if !strings.HasPrefix(p.RawName, "@") {
		return false
	}
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return false
	}
	groupIDs, err := u.GroupIds()
	if err != nil {
		return false
	}
	want := strconv.Itoa(p.GID)
	for _, g := range groupIDs {
		if g == want {
			return true
		}
	}
	return false
}

type parseError struct {
	line int
}

func (e *parseError) Error() string {
	return "rules: failed to parse line " + strconv.Itoa(e.line)
}

func newParseError(line int) error {
	return &parseError{line: line}
}
