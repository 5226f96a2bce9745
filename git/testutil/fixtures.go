package testutil

// Test user information used across all test helpers.
const (
	// TestAuthor is the default author name for test commits.
	TestAuthor = "Test User"

	// TestEmail is the default email for test commits.
	TestEmail = "test@example.com"

	// TestAuthor2 is an alternate author name for testing multi-user scenarios.
	TestAuthor2 = "Another User"

	// TestEmail2 is an alternate email for testing multi-user scenarios.
	TestEmail2 = "another@example.com"
)

// Test repository URLs.
const (
	// TestRepoURL is a sample HTTPS repository URL for testing.
	TestRepoURL = "https://github.com/test/repo.git"

	// TestRepoSSHURL is a sample SSH repository URL for testing.
	TestRepoSSHURL = "git@github.com:test/repo.git"
)

// Test file content.
const (
	// TestFileContent is sample content for README files.
	TestFileContent = "# Test Repository\n\nThis is a test repository.\n"

	// TestGoFileContent is sample Go source code.
	TestGoFileContent = `package main

import "fmt"

func main() {
	fmt.Println("Hello, World!")
}
`

	// TestIgnoreContent is a sample .gitignore.
	TestIgnoreContent = "*.log\nbuild/\n"
)

// Test commit messages.
const (
	// TestCommitMessage is a standard test commit message.
	TestCommitMessage = "Test commit"

	// TestInitialCommit is a message for initial commits.
	TestInitialCommit = "Initial commit"

	// TestMultilineCommit is a multi-line commit message.
	TestMultilineCommit = `Add complex feature

This commit adds a complex feature that required
multiple changes across several files.
`
)

// Test reference names.
const (
	// TestBranchName is a standard test branch name.
	TestBranchName = "feature/test-branch"

	// TestTagName is a standard test tag name.
	TestTagName = "v1.0.0"

	// TestTagMessage is a standard tag message.
	TestTagMessage = "Release version 1.0.0"

	// TestRemoteName is a standard remote name.
	TestRemoteName = "origin"
)

// Test file paths.
const (
	// TestFilePath is a standard test file path.
	TestFilePath = "README.md"

	// TestFilePath2 is a nested test file path.
	TestFilePath2 = "docs/guide.md"

	// TestGoFilePath is a Go source file path.
	TestGoFilePath = "main.go"
)
