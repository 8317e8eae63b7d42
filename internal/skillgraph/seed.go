package skillgraph

import "github.com/abhisek/adaptiq/internal/knowledge"

// Categories used by the default catalog.
const (
	CategoryMathematics = "Mathematics"
	CategoryPhysics     = "Physics"
	CategoryChemistry   = "Chemistry"
)

// DefaultCatalog returns the built-in exam-prep curriculum.
func DefaultCatalog() []Skill {
	return []Skill{
		// Mathematics
		{ID: "sets-relations", Name: "Sets and Relations", Category: CategoryMathematics, Topic: knowledge.Algebra,
			Difficulty: TierBeginner, EstimatedHours: 6,
			Description: "Set operations, Venn diagrams, relations and their types"},
		{ID: "functions", Name: "Functions", Category: CategoryMathematics, Topic: knowledge.Algebra,
			Difficulty: TierBeginner, EstimatedHours: 8, Prerequisites: []string{"sets-relations"},
			Description: "Domain, range, composition and inverse functions"},
		{ID: "quadratic-equations", Name: "Quadratic Equations", Category: CategoryMathematics, Topic: knowledge.Algebra,
			Difficulty: TierIntermediate, EstimatedHours: 10, Prerequisites: []string{"sets-relations"},
			Description: "Roots, discriminant, nature of roots and symmetric functions"},
		{ID: "complex-numbers", Name: "Complex Numbers", Category: CategoryMathematics, Topic: knowledge.Algebra,
			Difficulty: TierIntermediate, EstimatedHours: 10, Prerequisites: []string{"quadratic-equations"},
			Description: "Argand plane, modulus, argument and De Moivre's theorem"},
		{ID: "sequences-series", Name: "Sequences and Series", Category: CategoryMathematics, Topic: knowledge.Algebra,
			Difficulty: TierIntermediate, EstimatedHours: 8, Prerequisites: []string{"functions"},
			Description: "AP, GP, HP and sums of special series"},
		{ID: "permutations-combinations", Name: "Permutations and Combinations", Category: CategoryMathematics, Topic: knowledge.Probability,
			Difficulty: TierBeginner, EstimatedHours: 8,
			Description: "Counting principles, arrangements and selections"},
		{ID: "probability-basics", Name: "Probability", Category: CategoryMathematics, Topic: knowledge.Probability,
			Difficulty: TierIntermediate, EstimatedHours: 10, Prerequisites: []string{"permutations-combinations", "sets-relations"},
			Description: "Conditional probability, Bayes' theorem and distributions"},
		{ID: "trig-ratios", Name: "Trigonometric Ratios", Category: CategoryMathematics, Topic: knowledge.Trigonometry,
			Difficulty: TierBeginner, EstimatedHours: 6,
			Description: "Ratios, identities and compound angles"},
		{ID: "trig-equations", Name: "Trigonometric Equations", Category: CategoryMathematics, Topic: knowledge.Trigonometry,
			Difficulty: TierIntermediate, EstimatedHours: 8, Prerequisites: []string{"trig-ratios", "quadratic-equations"},
			Description: "General solutions and inverse trigonometric functions"},
		{ID: "straight-lines", Name: "Straight Lines", Category: CategoryMathematics, Topic: knowledge.CoordinateGeometry,
			Difficulty: TierBeginner, EstimatedHours: 6,
			Description: "Slopes, forms of a line, distances and angle bisectors"},
		{ID: "conic-sections", Name: "Conic Sections", Category: CategoryMathematics, Topic: knowledge.CoordinateGeometry,
			Difficulty: TierAdvanced, EstimatedHours: 14, Prerequisites: []string{"straight-lines", "quadratic-equations"},
			Description: "Circles, parabolas, ellipses and hyperbolas"},
		{ID: "limits-continuity", Name: "Limits and Continuity", Category: CategoryMathematics, Topic: knowledge.Calculus,
			Difficulty: TierIntermediate, EstimatedHours: 8, Prerequisites: []string{"functions"},
			Description: "Standard limits, L'Hopital's rule and continuity"},
		{ID: "differentiation", Name: "Differentiation", Category: CategoryMathematics, Topic: knowledge.Calculus,
			Difficulty: TierAdvanced, EstimatedHours: 12, Prerequisites: []string{"limits-continuity"},
			Description: "Derivatives, applications, maxima and minima"},
		{ID: "integration", Name: "Integration", Category: CategoryMathematics, Topic: knowledge.Calculus,
			Difficulty: TierExpert, EstimatedHours: 16, Prerequisites: []string{"differentiation"},
			Description: "Indefinite and definite integrals, area under curves"},
		{ID: "vector-algebra", Name: "Vector Algebra", Category: CategoryMathematics, Topic: knowledge.Vectors,
			Difficulty: TierIntermediate, EstimatedHours: 8, Prerequisites: []string{"trig-ratios"},
			Description: "Dot and cross products, 3D lines and planes"},

		// Physics
		{ID: "kinematics", Name: "Kinematics", Category: CategoryPhysics, Topic: knowledge.Mechanics,
			Difficulty: TierBeginner, EstimatedHours: 8,
			Description: "Motion in one and two dimensions, projectiles"},
		{ID: "laws-of-motion", Name: "Laws of Motion", Category: CategoryPhysics, Topic: knowledge.Mechanics,
			Difficulty: TierIntermediate, EstimatedHours: 10, Prerequisites: []string{"kinematics"},
			Description: "Newton's laws, friction and circular motion"},
		{ID: "work-energy", Name: "Work, Energy and Power", Category: CategoryPhysics, Topic: knowledge.Mechanics,
			Difficulty: TierIntermediate, EstimatedHours: 8, Prerequisites: []string{"laws-of-motion"},
			Description: "Work-energy theorem, conservation and collisions"},
		{ID: "electrostatics", Name: "Electrostatics", Category: CategoryPhysics, Topic: knowledge.Electromagnetism,
			Difficulty: TierIntermediate, EstimatedHours: 12, Prerequisites: []string{"vector-algebra"},
			Description: "Coulomb's law, fields, potential and capacitors"},
		{ID: "current-electricity", Name: "Current Electricity", Category: CategoryPhysics, Topic: knowledge.Electromagnetism,
			Difficulty: TierAdvanced, EstimatedHours: 10, Prerequisites: []string{"electrostatics"},
			Description: "Ohm's law, Kirchhoff's rules and measuring instruments"},
		{ID: "ray-optics", Name: "Ray Optics", Category: CategoryPhysics, Topic: knowledge.Optics,
			Difficulty: TierIntermediate, EstimatedHours: 10, Prerequisites: []string{"trig-ratios"},
			Description: "Reflection, refraction, lenses and optical instruments"},
		{ID: "modern-physics", Name: "Dual Nature and Atoms", Category: CategoryPhysics, Topic: knowledge.ModernPhysics,
			Difficulty: TierAdvanced, EstimatedHours: 10, Prerequisites: []string{"ray-optics"},
			Description: "Photoelectric effect, Bohr model and nuclei"},

		// Chemistry
		{ID: "mole-concept", Name: "Mole Concept", Category: CategoryChemistry, Topic: knowledge.PhysicalChemistry,
			Difficulty: TierBeginner, EstimatedHours: 6,
			Description: "Stoichiometry, concentration terms and limiting reagents"},
		{ID: "chemical-equilibrium", Name: "Chemical Equilibrium", Category: CategoryChemistry, Topic: knowledge.PhysicalChemistry,
			Difficulty: TierAdvanced, EstimatedHours: 10, Prerequisites: []string{"mole-concept"},
			Description: "Equilibrium constants, Le Chatelier's principle and ionic equilibrium"},
		{ID: "goc", Name: "General Organic Chemistry", Category: CategoryChemistry, Topic: knowledge.OrganicChemistry,
			Difficulty: TierIntermediate, EstimatedHours: 10,
			Description: "Electronic effects, reaction intermediates and isomerism"},
		{ID: "hydrocarbons", Name: "Hydrocarbons", Category: CategoryChemistry, Topic: knowledge.OrganicChemistry,
			Difficulty: TierIntermediate, EstimatedHours: 8, Prerequisites: []string{"goc"},
			Description: "Alkanes, alkenes, alkynes and aromatic compounds"},
		{ID: "periodic-table", Name: "Periodic Classification", Category: CategoryChemistry, Topic: knowledge.InorganicChemistry,
			Difficulty: TierBeginner, EstimatedHours: 5,
			Description: "Periodic trends in size, ionization energy and electronegativity"},
		{ID: "chemical-bonding", Name: "Chemical Bonding", Category: CategoryChemistry, Topic: knowledge.InorganicChemistry,
			Difficulty: TierIntermediate, EstimatedHours: 10, Prerequisites: []string{"periodic-table"},
			Description: "VSEPR, hybridization and molecular orbital theory"},
	}
}

// DefaultGraph builds the graph for DefaultCatalog.
func DefaultGraph() *Graph {
	return MustNew(DefaultCatalog())
}
