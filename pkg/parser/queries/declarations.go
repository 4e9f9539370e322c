package queries

// JSDeclarations matches the top-level declaration shapes of a JavaScript
// externs file. Every pattern captures the whole statement as
// `<kind>.definition` and the declared name as `<kind>.name`. Patterns that
// go through an inner node capture it as `<kind>.declarator`.
const JSDeclarations = `
; var console;
(program
  (variable_declaration
    (variable_declarator
      name: (identifier) @var.name) @var.declarator) @var.definition)

; const VERSION = "1";
(program
  (lexical_declaration
    (variable_declarator
      name: (identifier) @var.name) @var.declarator) @var.definition)

; function alert(message) {}
(program
  (function_declaration
    name: (identifier) @function.name) @function.definition)

; Console.prototype.log = function(var_args) {};
(program
  (expression_statement
    (assignment_expression
      left: [(member_expression) (identifier)] @assign.name) @assign.declarator) @assign.definition)

; Console.prototype.memory;
(program
  (expression_statement
    (member_expression) @stub.name) @stub.definition)
`

// TSDeclarations extends JSDeclarations with the signature-only forms of
// TypeScript declaration files.
const TSDeclarations = JSDeclarations + `
; function alert(message: string): void;
(program
  (function_signature
    name: (identifier) @function.name) @function.definition)

; declare function alert(message: string): void;
(program
  (ambient_declaration
    (function_signature
      name: (identifier) @function.name) @function.declarator) @function.definition)

; declare var console: Console;
(program
  (ambient_declaration
    (variable_declaration
      (variable_declarator
        name: (identifier) @var.name) @var.declarator)) @var.definition)

; declare const VERSION: string;
(program
  (ambient_declaration
    (lexical_declaration
      (variable_declarator
        name: (identifier) @var.name) @var.declarator)) @var.definition)
`
