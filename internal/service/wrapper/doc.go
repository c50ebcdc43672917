// Package wrapper installs, updates and runs Composer on behalf of the user.
//
// A run resolves the working directory, makes sure composer.phar exists there
// (downloading and verifying the official installer when it does not), fixes
// its execute bits, triggers a self-update once the PHAR is a week old and
// finally hands the process over to it with the original arguments.
//
// Every side effect goes through a small capability interface (Fetcher,
// Copier, Remover, Runner, Execer) so tests can substitute in-memory fakes.
package wrapper
